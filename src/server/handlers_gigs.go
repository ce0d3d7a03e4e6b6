package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/escrow"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/terminal"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/token"

	"github.com/gin-gonic/gin"
)

func (self *Server) onListGigs(c *gin.Context) {
	filter := escrow.GigFilter(c.DefaultQuery("filter", string(escrow.FilterAll)))

	gigs, err := self.store.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	counts, err := self.store.Counts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"gigs": gigs, "counts": counts})
}

func (self *Server) onGetGig(c *gin.Context) {
	gigId, ok := parseGigId(c)
	if !ok {
		return
	}

	gig, err := self.gateway.GigByID(c.Request.Context(), gigId)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"gig":           gig,
		"amountDisplay": token.Format(gig.Amount),
		"createdAgo":    token.FormatRelativeTime(gig.CreatedAt),
	})
}

func (self *Server) onCreateGig(c *gin.Context) {
	var input escrow.CreateGigInput
	err := c.ShouldBindJSON(&input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := escrow.ValidateCreateGig(input)
	if err != nil {
		respondError(c, err)
		return
	}

	self.terminal.AddLog(terminal.Command,
		fmt.Sprintf("createGig(%q, %s, %q, %q)",
			input.Freelancer, input.Amount, input.RepoOwner+"/"+input.RepoName, "#"+input.PrId),
		"contract")
	self.terminal.AddLog(terminal.Info, "Creating new gig...", "escrow")

	handle, err := self.gateway.SubmitCreateGig(c.Request.Context(),
		input.Freelancer, amount, input.RepoOwner, input.RepoName, input.PrId)
	if err != nil {
		self.terminal.AddLog(terminal.Error, fmt.Sprintf("Failed to create gig: %v", err), "escrow")
		respondError(c, err)
		return
	}

	self.awaitInBackground(handle)
	c.JSON(http.StatusAccepted, gin.H{"hash": handle})
}

func (self *Server) onCancelGig(c *gin.Context) {
	gigId, ok := parseGigId(c)
	if !ok {
		return
	}

	self.terminal.AddLog(terminal.Command, fmt.Sprintf("cancelGig(%d)", gigId), "contract")
	self.terminal.AddLog(terminal.Info, fmt.Sprintf("Cancelling gig #%d...", gigId), "escrow")

	handle, err := self.gateway.SubmitCancelGig(c.Request.Context(), gigId)
	if err != nil {
		self.terminal.AddLog(terminal.Error, fmt.Sprintf("Failed to cancel gig: %v", err), "escrow")
		respondError(c, err)
		return
	}

	self.awaitInBackground(handle)
	c.JSON(http.StatusAccepted, gin.H{"hash": handle})
}

func (self *Server) onGetPullRequest(c *gin.Context) {
	gigId, ok := parseGigId(c)
	if !ok {
		return
	}

	gig, err := self.gateway.GigByID(c.Request.Context(), gigId)
	if err != nil {
		respondError(c, err)
		return
	}

	pr, err := self.github.PullRequest(c.Request.Context(), gig.RepoOwner, gig.RepoName, gig.PrId)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, pr)
}

// awaitInBackground narrates the confirmation outcome without blocking the
// request
func (self *Server) awaitInBackground(handle escrow.TxHandle) {
	self.SubmitToWorker(func() {
		_, err := self.gateway.AwaitConfirmation(self.Ctx, handle)
		if err != nil {
			self.terminal.AddLog(terminal.Error, fmt.Sprintf("Transaction failed: %v", err), "tx")
			return
		}
		self.terminal.AddLog(terminal.Success, fmt.Sprintf("Transaction confirmed: %.10s...", string(handle)), "tx")
	})
}

func parseGigId(c *gin.Context) (gigId uint64, ok bool) {
	gigId, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || gigId == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid gig id"})
		return 0, false
	}
	return gigId, true
}

func respondError(c *gin.Context, err error) {
	var validationErr *escrow.ValidationError
	var notFoundErr *escrow.NotFoundError
	var txFailedErr *escrow.TransactionFailedError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "field": validationErr.Field})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	case errors.As(err, &txFailedErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": txFailedErr.Error()})
	case errors.Is(err, escrow.ErrVerificationInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
