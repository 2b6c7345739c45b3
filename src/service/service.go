package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/mosaicnetworks/stakechain/src/blockchain"
	"github.com/sirupsen/logrus"
)

// maxBodySize bounds the size of a submitted transaction.
const maxBodySize = 1 << 20

// Node is the part of a node exposed by the API.
type Node interface {
	SubmitTransaction(tx *blockchain.Transaction) (string, error)
	GetBlockchain() []*blockchain.Block
	GetBlocksFrom(sequence int) []*blockchain.Block
	GetTransactionPool() []*blockchain.Transaction
	GetBalance(account string) int64
	GetStats() map[string]string
	Peers() []string
}

// Service exposes a node over HTTP.
type Service struct {
	bindAddress string
	node        Node
	router      *mux.Router
	server      *http.Server
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, n Node, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		node:        n,
		router:      mux.NewRouter(),
		logger:      logger,
	}

	service.registerHandlers()

	service.server = &http.Server{
		Addr:              bindAddress,
		Handler:           service.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering API handlers")
	s.router.Use(s.cors)
	s.router.HandleFunc("/transaction", s.SubmitTransaction).Methods(http.MethodPost)
	s.router.HandleFunc("/blockchain", s.GetBlockchain).Methods(http.MethodGet)
	s.router.HandleFunc("/transactionpool", s.GetTransactionPool).Methods(http.MethodGet)
	s.router.HandleFunc("/balance/{account}", s.GetBalance).Methods(http.MethodGet)
	s.router.HandleFunc("/stats", s.GetStats).Methods(http.MethodGet)
	s.router.HandleFunc("/peers", s.GetPeers).Methods(http.MethodGet)
}

func (s *Service) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

// Handler returns the HTTP handler of the API.
func (s *Service) Handler() http.Handler {
	return s.router
}

// Serve calls ListenAndServe. This is a blocking call. It returns once Close
// has been called.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving API")

	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.WithError(err).Error("Serving API")
	}
}

// Close stops the HTTP server.
func (s *Service) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// SubmitTransaction decodes a signed transaction from the request body and
// hands it to the node.
func (s *Service) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var tx blockchain.Transaction

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&tx); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding transaction: %w", err))
		return
	}

	id, err := s.node.SubmitTransaction(&tx)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"id":    tx.ID,
			"error": err,
		}).Debug("Rejected transaction")
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// GetBlockchain returns the blocks of the chain. The optional "from" query
// parameter skips the blocks below that sequence.
func (s *Service) GetBlockchain(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Query().Get("from")
	if param == "" {
		s.writeJSON(w, http.StatusOK, s.node.GetBlockchain())
		return
	}

	from, err := strconv.Atoi(param)
	if err != nil || from < 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid from parameter %q", param))
		return
	}

	blocks := s.node.GetBlocksFrom(from)
	if blocks == nil {
		blocks = []*blockchain.Block{}
	}

	s.writeJSON(w, http.StatusOK, blocks)
}

// GetTransactionPool returns the pending transactions.
func (s *Service) GetTransactionPool(w http.ResponseWriter, r *http.Request) {
	txs := s.node.GetTransactionPool()
	if txs == nil {
		txs = []*blockchain.Transaction{}
	}
	s.writeJSON(w, http.StatusOK, txs)
}

// GetBalance ...
func (s *Service) GetBalance(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": account,
		"balance": s.node.GetBalance(account),
	})
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.node.GetStats())
}

// GetPeers ...
func (s *Service) GetPeers(w http.ResponseWriter, r *http.Request) {
	peers := s.node.Peers()
	if peers == nil {
		peers = []string{}
	}
	s.writeJSON(w, http.StatusOK, peers)
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Encoding response")
	}
}

func (s *Service) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
