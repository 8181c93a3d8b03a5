package mqtt5

// HandlerInterceptor is a function that wraps a MessageHandler.
// It allows cross-cutting concerns like logging, metrics, or tracing
// to be applied to all message processing.
//
// Example (Logging):
//
//	func LoggingInterceptor(next mq.MessageHandler) mq.MessageHandler {
//	    return func(client *mq.Client, msg mq.Message) {
//	        log.Printf("Received message on topic %s", msg.Topic)
//	        next(client, msg)
//	    }
//	}
type HandlerInterceptor func(MessageHandler) MessageHandler

// PublishFunc matches the signature of Client.Publish.
type PublishFunc func(topic string, payload []byte, opts ...PublishOption) Token

// PublishInterceptor is a function that wraps a PublishFunc.
// It allows cross-cutting concerns to be applied to all outbound messages.
//
// Example (Tracing):
//
//	func TracingInterceptor(next mq.PublishFunc) mq.PublishFunc {
//	    return func(topic string, payload []byte, opts ...mq.PublishOption) mq.Token {
//	        // Inject tracing headers into opts or log the publish
//	        return next(topic, payload, opts...)
//	    }
//	}
type PublishInterceptor func(PublishFunc) PublishFunc

// chain applies a list of wrap-functions to base in reverse order, so
// interceptors[0] ends up outermost and runs first. Both interceptor
// kinds below share this shape even though their function signatures
// differ, so it's expressed once as a generic rather than twice by hand.
func chain[T any](base T, wrap []func(T) T) T {
	for i := len(wrap) - 1; i >= 0; i-- {
		base = wrap[i](base)
	}
	return base
}

// applyHandlerInterceptors wraps a MessageHandler with multiple interceptors.
func applyHandlerInterceptors(handler MessageHandler, interceptors []HandlerInterceptor) MessageHandler {
	wrap := make([]func(MessageHandler) MessageHandler, len(interceptors))
	for i, ic := range interceptors {
		wrap[i] = ic
	}
	return chain(handler, wrap)
}

// applyPublishInterceptors wraps a PublishFunc with multiple interceptors.
func applyPublishInterceptors(publish PublishFunc, interceptors []PublishInterceptor) PublishFunc {
	wrap := make([]func(PublishFunc) PublishFunc, len(interceptors))
	for i, ic := range interceptors {
		wrap[i] = ic
	}
	return chain(publish, wrap)
}
