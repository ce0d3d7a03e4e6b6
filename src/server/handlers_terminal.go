package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func (self *Server) onGetTerminal(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entries": self.terminal.Logs()})
}

func (self *Server) onClearTerminal(c *gin.Context) {
	self.terminal.Clear()
	c.Status(http.StatusNoContent)
}

// onStreamTerminal pushes the retained entries followed by every new one over
// a websocket. The connection closes when the client goes away or the server
// stops.
func (self *Server) onStreamTerminal(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		self.Log.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sub := self.terminal.Subscribe()
	defer sub.Unsubscribe()

	ctx := c.Request.Context()

	for _, entry := range self.terminal.Logs() {
		err = wsjson.Write(ctx, conn, entry)
		if err != nil {
			return
		}
	}

	for {
		select {
		case entry, ok := <-sub.C:
			if !ok {
				return
			}
			err = wsjson.Write(ctx, conn, entry)
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		case <-self.Ctx.Done():
			return
		}
	}
}
