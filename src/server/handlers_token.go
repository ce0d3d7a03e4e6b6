package server

import (
	"fmt"
	"net/http"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/terminal"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/token"

	"github.com/gin-gonic/gin"
)

func (self *Server) onGetBalance(c *gin.Context) {
	account := c.DefaultQuery("account", self.gateway.Address())

	balance, err := self.gateway.TokenBalance(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": account,
		"balance": balance.String(),
		"display": token.Format(balance),
	})
}

func (self *Server) onGetAllowance(c *gin.Context) {
	owner := c.DefaultQuery("owner", self.gateway.Address())

	allowance, err := self.gateway.TokenAllowance(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"owner":     owner,
		"allowance": allowance.String(),
		"display":   token.Format(allowance),
	})
}

func (self *Server) onApprove(c *gin.Context) {
	var input struct {
		Amount string `json:"amount"`
	}
	err := c.ShouldBindJSON(&input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := token.Parse(input.Amount)
	if err != nil || amount.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	self.terminal.AddLog(terminal.Info, fmt.Sprintf("Approving %s MNEE tokens...", input.Amount), "token")

	handle, err := self.gateway.SubmitApprove(c.Request.Context(), amount)
	if err != nil {
		self.terminal.AddLog(terminal.Error, fmt.Sprintf("Approval failed: %v", err), "token")
		respondError(c, err)
		return
	}

	self.awaitInBackground(handle)
	c.JSON(http.StatusAccepted, gin.H{"hash": handle})
}
