// Package api exposes the header chain's state over HTTP using Gin, a
// read-only surface in place of a wallet-facing gRPC service.
package api

import (
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/btcforknode/headerchain/chain"
	"github.com/btcforknode/headerchain/common/logging"
	"github.com/btcforknode/headerchain/hash32"
	"github.com/btcforknode/headerchain/header"
)

// Server serves chain state over HTTP.
type Server struct {
	idx    *chain.Index
	engine *gin.Engine
	log    *logrus.Entry
}

// New constructs a Server backed by idx.
func New(idx *chain.Index, log *logrus.Entry) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), logging.GinMiddleware())

	s := &Server{idx: idx, engine: engine, log: log}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/height", s.handleHeight)
	s.engine.GET("/header/:height", s.handleHeaderAt)
	s.engine.POST("/verify", s.handleVerify)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

type heightResponse struct {
	Height int    `json:"height"`
	Hash   string `json:"hash,omitempty"`
}

func (s *Server) handleHeight(c *gin.Context) {
	resp := heightResponse{Height: s.idx.Height()}
	if tip := s.idx.Tip(); tip != nil {
		resp.Hash = hash32.Encode(hash32.Reverse(tip.Hash()))
	}
	c.JSON(http.StatusOK, resp)
}

type headerResponse struct {
	Height     int    `json:"height"`
	Hash       string `json:"hash"`
	Version    int32  `json:"version"`
	PrevBlock  string `json:"prev_block"`
	MerkleRoot string `json:"merkle_root"`
	Time       uint32 `json:"time"`
	Bits       uint32 `json:"bits"`
	Nonce      uint32 `json:"nonce"`
	Raw        string `json:"raw"`
}

func toHeaderResponse(height int, h *header.Header) (headerResponse, error) {
	raw, err := h.MarshalBinary()
	if err != nil {
		return headerResponse{}, err
	}
	return headerResponse{
		Height:     height,
		Hash:       hash32.Encode(hash32.Reverse(h.Hash())),
		Version:    h.Version,
		PrevBlock:  hash32.Encode(hash32.Reverse(h.PrevBlock)),
		MerkleRoot: hash32.Encode(hash32.Reverse(h.MerkleRoot)),
		Time:       h.Time,
		Bits:       h.Bits,
		Nonce:      h.Nonce,
		Raw:        hex.EncodeToString(raw),
	}, nil
}

func (s *Server) handleHeaderAt(c *gin.Context) {
	var height int
	if _, err := fmt.Sscanf(c.Param("height"), "%d", &height); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "height must be an integer"})
		return
	}

	h := s.idx.At(height)
	if h == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no header at that height"})
		return
	}

	resp, err := toHeaderResponse(height, h)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

type verifyRequest struct {
	Header string `json:"header" binding:"required"`
}

type verifyResponse struct {
	Valid bool   `json:"valid"`
	Hash  string `json:"hash,omitempty"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleVerify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raw, err := hex.DecodeString(req.Header)
	if err != nil {
		c.JSON(http.StatusOK, verifyResponse{Error: "invalid hex"})
		return
	}

	h, _, err := header.Parse(raw)
	if err != nil {
		c.JSON(http.StatusOK, verifyResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, verifyResponse{
		Valid: h.Verify(),
		Hash:  hash32.Encode(hash32.Reverse(h.Hash())),
	})
}

// Run starts the HTTP server on addr, optionally with TLS if cert is
// non-nil, offering the same choice cmd/root.go does between a
// generated self-signed certificate and plaintext for local testing.
func (s *Server) Run(addr string, cert *tls.Certificate) error {
	if cert == nil {
		return s.engine.Run(addr)
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
		TLSConfig: &tls.Config{
			Certificates: []tls.Certificate{*cert},
		},
	}
	return srv.ListenAndServeTLS("", "")
}
