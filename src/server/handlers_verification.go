package server

import (
	"net/http"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/token"

	"github.com/gin-gonic/gin"
)

func (self *Server) onVerifyGig(c *gin.Context) {
	gigId, ok := parseGigId(c)
	if !ok {
		return
	}

	err := self.tracker.Verify(gigId)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"gigId": gigId})
}

func (self *Server) onGetVerification(c *gin.Context) {
	result := self.tracker.Result()

	out := gin.H{
		"result":      result,
		"transaction": self.tracker.TransactionState(),
	}
	if result != nil && result.Amount != nil {
		out["amountDisplay"] = token.Format(result.Amount)
	}

	c.JSON(http.StatusOK, out)
}

func (self *Server) onClearVerification(c *gin.Context) {
	self.tracker.Clear()
	c.Status(http.StatusNoContent)
}
