package mqtt5

// processPublishQueue drains c.publishQueue in FIFO order, subject to the
// server's Receive Maximum (an unset/zero ReceiveMaximum means no limit).
func (c *Client) processPublishQueue() {
	hasCapacity := func() bool {
		return c.serverCaps.ReceiveMaximum == 0 || c.inFlightCount < int(c.serverCaps.ReceiveMaximum)
	}

	for len(c.publishQueue) > 0 && hasCapacity() {
		req := c.publishQueue[0]
		if !c.sendPublishLocked(req) {
			return
		}
		c.publishQueue = c.publishQueue[1:]
	}
}
