package mqtt5

import (
	"context"
	"time"

	"github.com/nsavch/mqtt5/internal/packets"
)

// logicLoop is the single-threaded state machine that manages all client state.
// This avoids the need for mutexes on the pending and subscriptions maps.
func (c *Client) logicLoop() {
	defer c.wg.Done()

	retryTicker := time.NewTicker(5 * time.Second)
	defer retryTicker.Stop()

	for {
		select {
		case pkt := <-c.incoming:
			c.sessionLock.Lock()
			c.handleIncoming(pkt)
			c.sessionLock.Unlock()

		case <-retryTicker.C:
			c.sessionLock.Lock()
			c.retryPending()
			c.processPublishQueue()
			c.sessionLock.Unlock()

		case <-c.stop:
			c.opts.Logger.Debug("logicLoop stopped")
			c.sessionLock.Lock()
			for _, op := range c.pending {
				op.token.complete(ErrClientDisconnected)
			}
			// Complete tokens for queued publish requests
			for _, req := range c.publishQueue {
				req.token.complete(ErrClientDisconnected)
			}
			c.publishQueue = nil
			c.sessionLock.Unlock()
			return
		}
	}
}

// internalResetState resets session state (e.g. on clean session reconnect).
// It acquires the session lock.
func (c *Client) internalResetState() {
	c.sessionLock.Lock()
	defer c.sessionLock.Unlock()
	c.receivedQoS2 = make(map[uint16]struct{})
}

// handleIncoming processes incoming packets from the server.
func (c *Client) handleIncoming(pkt packets.Packet) {
	switch p := pkt.(type) {
	case *packets.PublishPacket:
		c.handlePublish(p)

	case *packets.PubackPacket:
		c.handlePuback(p)

	case *packets.PubrecPacket:
		c.handlePubrec(p)

	case *packets.PubrelPacket:
		c.handlePubrel(p)

	case *packets.PubcompPacket:
		c.handlePubcomp(p)

	case *packets.SubackPacket:
		c.handleSuback(p)

	case *packets.UnsubackPacket:
		c.handleUnsuback(p)

	case *packets.PingrespPacket:
		// Keepalive response - signal writeLoop that PINGRESP was received
		select {
		case c.pingPendingCh <- struct{}{}:
		default:
			// Channel full, which means writeLoop hasn't processed the previous signal yet
		}

	case *packets.DisconnectPacket:
		c.handleDisconnectPacket(p)

	case *packets.AuthPacket:
		c.handleAuth(p)
	}
}

// handlePublish processes an incoming PUBLISH packet.
func (c *Client) handlePublish(p *packets.PublishPacket) {
	if c.opts.ProtocolVersion >= ProtocolV50 && !c.resolveTopicAlias(p) {
		return
	}

	if !c.admitInbound(p) {
		return
	}

	c.dispatchToHandlers(p)
	c.ackInbound(p)
}

// resolveTopicAlias applies MQTT v5.0 topic alias resolution to an incoming
// PUBLISH, disconnecting the server on protocol violations. It returns false
// when the packet should not be processed further (already disconnected).
func (c *Client) resolveTopicAlias(p *packets.PublishPacket) bool {
	if p.Properties == nil || p.Properties.Presence&packets.PresTopicAlias == 0 {
		return true
	}

	aliasID := p.Properties.TopicAlias

	if aliasID == 0 {
		c.opts.Logger.Error("server sent invalid topic alias 0")
		_ = c.disconnectWithReason(context.Background(), uint8(ReasonCodeTopicAliasInvalid), nil)
		return false
	}

	if c.opts.TopicAliasMaximum > 0 && aliasID > c.opts.TopicAliasMaximum {
		c.opts.Logger.Error("server exceeded topic alias maximum",
			"alias", aliasID,
			"max", c.opts.TopicAliasMaximum)
		_ = c.disconnectWithReason(context.Background(), uint8(ReasonCodeTopicAliasInvalid), nil)
		return false
	}

	if p.Topic == "" {
		c.receivedAliasesLock.RLock()
		topic, exists := c.receivedAliases[aliasID]
		c.receivedAliasesLock.RUnlock()

		if !exists {
			c.opts.Logger.Error("server sent unknown topic alias", "alias", aliasID)
			if err := c.disconnectWithReason(context.Background(), uint8(ReasonCodeMalformedPacket), nil); err != nil {
				c.opts.Logger.Error("failed to disconnect client", "error", err)
			}
			return false
		}

		p.Topic = topic
		c.opts.Logger.Debug("resolved topic alias", "alias", aliasID, "topic", topic)
		return true
	}

	c.receivedAliasesLock.Lock()
	c.receivedAliases[aliasID] = p.Topic
	c.receivedAliasesLock.Unlock()
	c.opts.Logger.Debug("registered topic alias", "alias", aliasID, "topic", p.Topic)
	return true
}

// admitInbound enforces the MQTT v5.0 Receive Maximum and QoS 2 de-duplication
// for an incoming PUBLISH. It returns false when the packet is a duplicate
// that must not be delivered to handlers again (a PUBREC has already been
// queued for it).
func (c *Client) admitInbound(p *packets.PublishPacket) bool {
	if c.opts.ProtocolVersion >= ProtocolV50 && p.QoS > 0 {
		if _, exists := c.inboundUnacked[p.PacketID]; !exists {
			limit := c.opts.ReceiveMaximum
			if limit == 0 {
				limit = 65535
			}
			if len(c.inboundUnacked) >= int(limit) {
				if c.opts.ReceiveMaximumPolicy == LimitPolicyStrict {
					c.opts.Logger.Error("receive maximum exceeded", "limit", limit)
					_ = c.disconnectWithReason(context.Background(), uint8(ReasonCodeReceiveMaximumExceed), nil)
					return false
				}
				if !c.receiveMaxExceededLogged {
					c.opts.Logger.Warn("receive maximum exceeded, ignoring (server is misbehaving)", "limit", limit)
					c.receiveMaxExceededLogged = true
				}
			}
			c.inboundUnacked[p.PacketID] = struct{}{}
		}
	}

	if p.QoS == 2 {
		if _, exists := c.receivedQoS2[p.PacketID]; exists {
			select {
			case c.outgoing <- &packets.PubrecPacket{PacketID: p.PacketID}:
			case <-c.stop:
			default:
			}
			return false
		}
		c.receivedQoS2[p.PacketID] = struct{}{}
	}

	return true
}

// dispatchToHandlers delivers p to every subscription handler whose filter
// matches, falling back to the default handler when nothing matches. Each
// handler runs in its own goroutine so a slow handler can't stall logicLoop.
func (c *Client) dispatchToHandlers(p *packets.PublishPacket) {
	var handlers []MessageHandler
	for filter, entry := range c.subscriptions {
		if MatchTopic(filter, p.Topic) && entry.handler != nil {
			handlers = append(handlers, entry.handler)
		}
	}

	if len(handlers) == 0 && c.opts != nil && c.opts.DefaultPublishHandler != nil {
		handlers = append(handlers, c.opts.DefaultPublishHandler)
	}

	msg := Message{
		Topic:      p.Topic,
		Payload:    p.Payload,
		QoS:        QoS(p.QoS),
		Retained:   p.Retain,
		Duplicate:  p.Dup,
		Properties: toPublicProperties(p.Properties),
	}

	for _, handler := range handlers {
		h := handler
		go h(c, msg)
	}
}

// ackInbound sends the PUBACK/PUBREC required to acknowledge a delivered
// PUBLISH. QoS 0 needs no acknowledgment.
func (c *Client) ackInbound(p *packets.PublishPacket) {
	switch p.QoS {
	case 1:
		select {
		case c.outgoing <- &packets.PubackPacket{PacketID: p.PacketID}:
			delete(c.inboundUnacked, p.PacketID)
		case <-c.stop:
		default:
			// Stays tracked as in-flight and will be retried once there's room.
		}
	case 2:
		select {
		case c.outgoing <- &packets.PubrecPacket{PacketID: p.PacketID}:
		case <-c.stop:
		default:
		}
	}
}

// completeInFlight finishes a pending QoS>0 publish exchange: it completes
// the operation's token with err (nil on success), drops the bookkeeping
// entry, frees its in-flight slot and lets the next queued publish take it.
func (c *Client) completeInFlight(packetID uint16, err error) {
	if op, ok := c.pending[packetID]; ok {
		op.token.complete(err)
		delete(c.pending, packetID)
		c.inFlightCount--
		c.processPublishQueue()
	}
}

// reasonCodeError builds the error for a failed v5.0 reason code, or nil for
// a successful one. v3.1.1 peers never send a meaningful reason code here.
func (c *Client) reasonCodeError(code uint8) error {
	if c.opts.ProtocolVersion >= ProtocolV50 && !isSuccessReasonCode(code) {
		return &MqttError{ReasonCode: ReasonCode(code)}
	}
	return nil
}

// handlePuback processes a PUBACK packet (QoS 1 acknowledgment).
func (c *Client) handlePuback(p *packets.PubackPacket) {
	c.completeInFlight(p.PacketID, c.reasonCodeError(p.ReasonCode))
}

// handlePubrec processes a PUBREC packet (QoS 2, step 1).
func (c *Client) handlePubrec(p *packets.PubrecPacket) {
	op, ok := c.pending[p.PacketID]
	if !ok {
		return
	}

	if !isSuccessReasonCode(p.ReasonCode) {
		c.completeInFlight(p.PacketID, &MqttError{ReasonCode: ReasonCode(p.ReasonCode)})
		return
	}

	pubrel := &packets.PubrelPacket{PacketID: p.PacketID, Version: c.opts.ProtocolVersion}
	select {
	case c.outgoing <- pubrel:
		// Update pending operation to track PUBREL for retransmission
		op.packet = pubrel
		op.timestamp = time.Now()
	case <-c.stop:
	default:
	}
}

// handlePubrel processes a PUBREL packet (QoS 2, step 2).
func (c *Client) handlePubrel(p *packets.PubrelPacket) {
	select {
	case c.outgoing <- &packets.PubcompPacket{PacketID: p.PacketID}:
		delete(c.inboundUnacked, p.PacketID)
	case <-c.stop:
	default:
	}

	delete(c.receivedQoS2, p.PacketID)
}

// handlePubcomp processes a PUBCOMP packet (QoS 2, step 3).
func (c *Client) handlePubcomp(p *packets.PubcompPacket) {
	c.completeInFlight(p.PacketID, c.reasonCodeError(p.ReasonCode))
}

// firstFailure scans per-filter reason codes and returns an *MqttError for
// the first failure, wrapping parent (if non-nil) as its Parent. Returns nil
// if every code indicates success.
func firstFailure(codes []uint8, parent error) error {
	for _, code := range codes {
		if !isSuccessReasonCode(code) {
			return &MqttError{ReasonCode: ReasonCode(code), Parent: parent}
		}
	}
	return nil
}

// handleSuback processes a SUBACK packet.
func (c *Client) handleSuback(p *packets.SubackPacket) {
	op, ok := c.pending[p.PacketID]
	if !ok {
		return
	}

	// Mirror accepted filters into the local subscription map (§4.8 Subscribe/Unsubscribe).
	if subPkt, ok := op.packet.(*packets.SubscribePacket); ok {
		for i, topic := range subPkt.Topics {
			if i < len(p.ReturnCodes) && isSuccessReasonCode(p.ReturnCodes[i]) {
				if entry, ok := c.subscriptions[topic]; ok {
					entry.qos = p.ReturnCodes[i] & 0x03
					c.subscriptions[topic] = entry
				}
			}
		}
	}

	op.token.complete(firstFailure(p.ReturnCodes, ErrSubscriptionFailed))
	delete(c.pending, p.PacketID)
}

// handleUnsuback processes an UNSUBACK packet.
func (c *Client) handleUnsuback(p *packets.UnsubackPacket) {
	op, ok := c.pending[p.PacketID]
	if !ok {
		return
	}

	// Unsubscribing always removes the filter locally, regardless of the
	// server's per-filter reason code: the caller asked to stop receiving it.
	if unsubPkt, ok := op.packet.(*packets.UnsubscribePacket); ok {
		for _, topic := range unsubPkt.Topics {
			delete(c.subscriptions, topic)
		}
	}

	op.token.complete(firstFailure(p.ReasonCodes, nil))
	delete(c.pending, p.PacketID)
}

// retryPending retransmits packets that haven't been acknowledged.
func (c *Client) retryPending() {
	now := time.Now()

	for _, op := range c.pending {
		if now.Sub(op.timestamp) > 10*time.Second {
			// Resend with DUP flag if it's a PUBLISH
			if pub, ok := op.packet.(*packets.PublishPacket); ok {
				pub.Dup = true
			}

			select {
			case c.outgoing <- op.packet:
				op.timestamp = now
			case <-c.stop:
				return
			default:
				// Outgoing queue is full, skip retransmission for now
				// to avoid blocking the logicLoop.
				return
			}
		}
	}
}

// nextID generates the next packet ID (1-65535, cycling).
func (c *Client) nextID() uint16 {
	for range 65535 {
		c.nextPacketID++
		if c.nextPacketID == 0 {
			c.nextPacketID = 1
		}
		if _, used := c.pending[c.nextPacketID]; !used {
			return c.nextPacketID
		}
	}
	// This should only happen if we have 65535 pending packets.
	// In that case, we return the next ID anyway as a fallback,
	// though it will cause a collision.
	return c.nextPacketID
}

// handleDisconnectPacket processes a DISCONNECT packet from the server.
func (c *Client) handleDisconnectPacket(p *packets.DisconnectPacket) {
	reason := "Unknown"
	if name, ok := disconnectReasonCodeNames[ReasonCode(p.ReasonCode)]; ok {
		reason = name
	}

	attrs := []any{
		"reason_code", p.ReasonCode,
		"reason", reason,
	}

	if p.Properties != nil && p.Properties.Presence&packets.PresReasonString != 0 {
		attrs = append(attrs, "reason_string", p.Properties.ReasonString)
	}

	if reasonCodeRedirectsConnection(p.ReasonCode) {
		attrs = append(attrs, "redirect", true)
	}

	c.opts.Logger.Warn("received DISCONNECT from server", attrs...)

	err := &DisconnectError{
		ReasonCode: ReasonCode(p.ReasonCode),
	}

	if p.Properties != nil {
		if p.Properties.Presence&packets.PresReasonString != 0 {
			err.ReasonString = p.Properties.ReasonString
		}
		if p.Properties.Presence&packets.PresSessionExpiryInterval != 0 {
			err.SessionExpiryInterval = p.Properties.SessionExpiryInterval
		}
		if p.Properties.Presence&packets.PresServerReference != 0 {
			err.ServerReference = p.Properties.ServerReference
		}
		if len(p.Properties.UserProperties) > 0 {
			err.UserProperties = make(map[string]string, len(p.Properties.UserProperties))
			for _, up := range p.Properties.UserProperties {
				err.UserProperties[up.Key] = up.Value
			}
		}
	}

	// Store for handleDisconnect to pick up
	c.connLock.Lock()
	c.lastDisconnectReason = err
	c.connLock.Unlock()
}

// disconnectReasonCodeNames maps MQTT v5.0 reason codes to human-readable strings for DISCONNECT packets.
var disconnectReasonCodeNames = map[ReasonCode]string{
	ReasonCodeNormalDisconnect:      "Normal disconnect",
	ReasonCodeDisconnectWithWill:    "Disconnect with Will Message",
	ReasonCodeUnspecifiedError:      "Unspecified error",
	ReasonCodeMalformedPacket:       "Malformed Packet",
	ReasonCodeProtocolError:         "Protocol Error",
	ReasonCodeImplementationError:   "Implementation specific error",
	ReasonCodeNotAuthorized:         "Not authorized",
	ReasonCodeServerBusy:            "Server busy",
	ReasonCodeServerShuttingDown:    "Server shutting down",
	ReasonCodeKeepAliveTimeout:      "Keep Alive timeout",
	ReasonCodeSessionTakenOver:      "Session taken over",
	ReasonCodeTopicFilterInvalid:    "Topic Filter invalid",
	ReasonCodeTopicNameInvalid:      "Topic Name invalid",
	ReasonCodeReceiveMaximumExceed:  "Receive Maximum exceeded",
	ReasonCodeTopicAliasInvalid:     "Topic Alias invalid",
	ReasonCodePacketTooLarge:        "Packet too large",
	ReasonCodeMessageRateTooHigh:    "Message rate too high",
	ReasonCodeQuotaExceeded:         "Quota exceeded",
	ReasonCodeAdministrativeAction:  "Administrative action",
	ReasonCodePayloadFormatInvalid:  "Payload format invalid",
	ReasonCodeRetainNotSupported:    "Retain not supported",
	ReasonCodeQoSNotSupported:       "QoS not supported",
	ReasonCodeUseAnotherServer:      "Use another server",
	ReasonCodeServerMoved:           "Server moved",
	ReasonCodeSharedSubNotSupported: "Shared Subscriptions not supported",
	ReasonCodeConnectionRateExceed:  "Connection rate exceeded",
	ReasonCodeMaximumConnectTime:    "Maximum connect time",
	ReasonCodeSubscriptionIDNotSupp: "Subscription Identifiers not supported",
	ReasonCodeWildcardSubNotSupp:    "Wildcard Subscriptions not supported",
}
