package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Callers identify themselves by address in the request body. The
// marketplace has no identity layer of its own; authorization is enforced
// against marketplace and registry state, not credentials.

type callerRequest struct {
	Caller string `json:"caller" binding:"required"`
}

type createItemRequest struct {
	Caller string `json:"caller" binding:"required"`
	// Pointer so that token id 0, a valid registry id, still binds.
	TokenID *uint64 `json:"token_id" binding:"required"`
}

type listItemRequest struct {
	Caller string          `json:"caller" binding:"required"`
	Price  decimal.Decimal `json:"price"`
}

type amountRequest struct {
	Caller string          `json:"caller" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

func tokenParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		writeBadRequest(c, "invalid token id")
		return 0, false
	}
	return id, true
}

func (s *Server) createItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	if err := s.mkt.CreateItem(c.Request.Context(), req.Caller, *req.TokenID); err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token_id": *req.TokenID, "owner": req.Caller})
}

func (s *Server) getItem(c *gin.Context) {
	id, ok := tokenParam(c)
	if !ok {
		return
	}
	item, found := s.mkt.Item(id)
	if !found {
		writeNotFound(c, "item not registered")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) listItem(c *gin.Context) {
	id, ok := tokenParam(c)
	if !ok {
		return
	}
	var req listItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	if err := s.mkt.ListItem(c.Request.Context(), req.Caller, id, req.Price); err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token_id": id, "price": req.Price})
}

func (s *Server) cancelListing(c *gin.Context) {
	id, ok := tokenParam(c)
	if !ok {
		return
	}
	var req callerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	if err := s.mkt.CancelListing(c.Request.Context(), req.Caller, id); err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token_id": id})
}

func (s *Server) buyItem(c *gin.Context) {
	id, ok := tokenParam(c)
	if !ok {
		return
	}
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	if err := s.mkt.BuyItem(c.Request.Context(), req.Caller, id, req.Amount); err != nil {
		writeProblem(c, err)
		return
	}
	item, _ := s.mkt.Item(id)
	c.JSON(http.StatusOK, item)
}

func (s *Server) startAuction(c *gin.Context) {
	id, ok := tokenParam(c)
	if !ok {
		return
	}
	var req callerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	if err := s.mkt.StartAuction(c.Request.Context(), req.Caller, id); err != nil {
		writeProblem(c, err)
		return
	}
	a, _ := s.mkt.AuctionOf(id)
	c.JSON(http.StatusCreated, a)
}

func (s *Server) getAuction(c *gin.Context) {
	id, ok := tokenParam(c)
	if !ok {
		return
	}
	a, found := s.mkt.AuctionOf(id)
	if !found {
		writeNotFound(c, "no auction for token")
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) placeBid(c *gin.Context) {
	id, ok := tokenParam(c)
	if !ok {
		return
	}
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	if err := s.mkt.PlaceBid(c.Request.Context(), req.Caller, id, req.Amount); err != nil {
		writeProblem(c, err)
		return
	}
	a, _ := s.mkt.AuctionOf(id)
	c.JSON(http.StatusOK, a)
}

func (s *Server) finishAuction(c *gin.Context) {
	id, ok := tokenParam(c)
	if !ok {
		return
	}
	var req callerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	if err := s.mkt.FinishAuction(c.Request.Context(), req.Caller, id); err != nil {
		writeProblem(c, err)
		return
	}
	a, _ := s.mkt.AuctionOf(id)
	c.JSON(http.StatusOK, a)
}

func (s *Server) cancelAuction(c *gin.Context) {
	id, ok := tokenParam(c)
	if !ok {
		return
	}
	var req callerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	if err := s.mkt.CancelAuction(c.Request.Context(), req.Caller, id); err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token_id": id})
}

func (s *Server) deposit(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	if err := s.mkt.Deposit(c.Request.Context(), req.Caller, req.Amount); err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": req.Caller, "balance": s.mkt.BalanceOf(req.Caller)})
}

func (s *Server) withdraw(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	if err := s.mkt.Withdraw(c.Request.Context(), req.Caller, req.Amount); err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": req.Caller, "balance": s.mkt.BalanceOf(req.Caller)})
}

func (s *Server) balance(c *gin.Context) {
	addr := c.Param("address")
	c.JSON(http.StatusOK, gin.H{"address": addr, "balance": s.mkt.BalanceOf(addr)})
}

func (s *Server) itemEvents(c *gin.Context) {
	id, ok := tokenParam(c)
	if !ok {
		return
	}
	recs, err := s.archive.EventsForToken(c.Request.Context(), id, queryLimit(c))
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) recentEvents(c *gin.Context) {
	recs, err := s.archive.Recent(c.Request.Context(), queryLimit(c))
	if err != nil {
		writeProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}
