package server

import (
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"attestbot/internal/attestation"
	"attestbot/internal/rates"
)

// Server is the event intake: the headless wallet daemon and the landing site
// push chat messages, payment notifications, login callbacks and exchange
// rates here over loopback HTTP.
type Server struct {
	bot  *attestation.Bot
	feed *rates.Feed
}

func New(bot *attestation.Bot, feed *rates.Feed) *Server {
	return &Server{bot: bot, feed: feed}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), localOnly())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	events := r.Group("/events")
	events.POST("/paired", s.paired)
	events.POST("/text", s.text)
	events.POST("/new_payments", s.newPayments)
	events.POST("/stable", s.stable)
	events.POST("/login", s.login)
	events.POST("/referral", s.referral)
	events.POST("/rates", s.ratesUpdate)
	return r
}

// localOnly rejects anything that did not come over loopback. The intake
// carries no authentication of its own.
func localOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := net.ParseIP(c.ClientIP())
		if ip == nil || !ip.IsLoopback() {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) paired(c *gin.Context) {
	var req struct {
		DeviceAddress string `json:"device_address" binding:"required"`
		PairingSecret string `json:"pairing_secret"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := s.bot.HandlePaired(req.DeviceAddress, req.PairingSecret); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) text(c *gin.Context) {
	var req struct {
		DeviceAddress string `json:"device_address" binding:"required"`
		Text          string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := s.bot.Respond(req.DeviceAddress, req.Text); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) newPayments(c *gin.Context) {
	var req struct {
		Units []string `json:"units" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := s.bot.HandleNewPayments(req.Units); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) stable(c *gin.Context) {
	var req struct {
		Units []string `json:"units" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := s.bot.HandleConfirmedUnits(req.Units); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		DeviceAddress  string `json:"device_address" binding:"required"`
		Username       string `json:"username" binding:"required"`
		Reputation     int64  `json:"reputation"`
		AccountCreated string `json:"account_created"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	accountCreated, err := time.Parse(time.RFC3339, req.AccountCreated)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account_created"})
		return
	}
	if err := s.bot.HandleProfileVerified(req.DeviceAddress, req.Username, req.Reputation, accountCreated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) referral(c *gin.Context) {
	var req struct {
		ReferringUserAddress string `json:"referring_user_address" binding:"required"`
		DeviceAddress        string `json:"device_address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := s.bot.RecordCookieReferral(req.ReferringUserAddress, req.DeviceAddress); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ratesUpdate(c *gin.Context) {
	var req struct {
		GbyteBTC float64 `json:"gbyte_btc" binding:"required"`
		BTCUSD   float64 `json:"btc_usd" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	s.feed.Update(decimal.NewFromFloat(req.GbyteBTC), decimal.NewFromFloat(req.BTCUSD))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
