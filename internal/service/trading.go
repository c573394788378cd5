package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoPolymarket/polydesk/internal/gate"
	"github.com/GoPolymarket/polydesk/internal/model"
	"github.com/GoPolymarket/polydesk/internal/order"
	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/GoPolymarket/polydesk/internal/pkg/logger"
	"github.com/GoPolymarket/polydesk/internal/pkg/metrics"
	"github.com/GoPolymarket/polydesk/internal/signer"
	"github.com/GoPolymarket/polydesk/internal/venue/clob"
	"github.com/GoPolymarket/polydesk/internal/venue/kalshi"
	"github.com/ethereum/go-ethereum/common"
)

// TradingService signs venue requests and routes orders for a user. Every
// operation loads the user's credentials from the store first.
type TradingService struct {
	store   CredentialStore
	clob    *clob.Client
	kalshi  *kalshi.Client
	gate    *gate.Evaluator
	builder *order.Builder
	now     func() time.Time
	log     *slog.Logger
}

func NewTradingService(store CredentialStore, clobClient *clob.Client, kalshiClient *kalshi.Client) *TradingService {
	return &TradingService{
		store:   store,
		clob:    clobClient,
		kalshi:  kalshiClient,
		gate:    gate.NewEvaluator(clobClient),
		builder: order.NewBuilder(clobClient.ChainID()),
		now:     time.Now,
		log:     logger.Component("trading"),
	}
}

func (s *TradingService) credentials(ctx context.Context, userID string) (*model.Credentials, error) {
	creds, err := s.store.Get(ctx, userID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrNotFound) {
			return &model.Credentials{UserID: userID}, nil
		}
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	return creds, nil
}

func (s *TradingService) kalshiSigner(ctx context.Context, userID string) (*signer.RSAPSSSigner, error) {
	creds, err := s.credentials(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !creds.Kalshi.Complete() {
		return nil, apperrors.New(apperrors.ErrNotFound, "no Kalshi API key stored for this account", nil)
	}
	return signer.NewRSAPSS(creds.Kalshi.APIKeyID, creds.Kalshi.PrivateKey)
}

func (s *TradingService) clobSigner(ctx context.Context, userID string) (*signer.HMACSigner, *model.VenueBCredentials, error) {
	creds, err := s.credentials(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	pc := creds.Polymarket
	if !pc.HasKey() || !pc.HasSecret() || !pc.HasPassphrase() {
		return nil, nil, apperrors.New(apperrors.ErrNotFound, "no complete CLOB API key stored for this account", nil)
	}
	hs, err := signer.NewHMAC(pc.OwnerAddress, pc.APIKeyCreds())
	if err != nil {
		return nil, nil, err
	}
	return hs, pc, nil
}

// SignVenueA returns Kalshi headers stamped with the current time.
func (s *TradingService) SignVenueA(ctx context.Context, userID string, req model.SignVenueARequest) (signer.VenueAHeaders, error) {
	ks, err := s.kalshiSigner(ctx, userID)
	if err != nil {
		return signer.VenueAHeaders{}, err
	}
	return ks.Headers(s.now(), req.Method, req.Path)
}

func (s *TradingService) SignVenueB(ctx context.Context, userID string, req model.SignVenueBRequest) (signer.VenueBHeaders, error) {
	hs, _, err := s.clobSigner(ctx, userID)
	if err != nil {
		return signer.VenueBHeaders{}, err
	}
	return hs.Headers(s.now(), req.Method, req.Path, req.Body), nil
}

// BuildOrder assembles an unsigned order. Funder and signature type fall
// back to the values stored with the user's CLOB key.
func (s *TradingService) BuildOrder(ctx context.Context, userID string, req model.BuildOrderRequest) (*model.BuildOrderResponse, error) {
	creds, err := s.credentials(ctx, userID)
	if err != nil {
		return nil, err
	}
	params := order.Params{
		TokenID:       req.TokenID,
		Price:         req.Price,
		Size:          req.Size,
		Side:          req.Side,
		Signer:        req.Signer,
		Funder:        req.Funder,
		SignatureType: req.SignatureType,
		NegRisk:       req.NegRisk,
	}
	if pc := creds.Polymarket; pc != nil {
		if params.Funder == "" {
			params.Funder = pc.FunderAddress
		}
		if params.SignatureType == nil {
			params.SignatureType = pc.SignatureType
		}
	}

	unsigned, err := s.builder.Build(params)
	if err != nil {
		return nil, err
	}
	return &model.BuildOrderResponse{
		Order:     unsigned.WithSignature(""),
		TypedData: unsigned.TypedData(s.builder.ChainID),
	}, nil
}

// SubmitOrder checks the gate, verifies the wallet signature against the
// order's signer and posts it under the user's CLOB key.
func (s *TradingService) SubmitOrder(ctx context.Context, userID string, req model.SubmitOrderRequest) (*clob.OrderResponse, error) {
	side := strings.ToUpper(req.Order.Side)
	hs, pc, err := s.clobSigner(ctx, userID)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("rejected", side).Inc()
		return nil, err
	}

	connected := req.ConnectedAddress
	if connected == "" {
		connected = req.Order.Signer
	}
	if res := s.gate.Evaluate(ctx, pc, connected); !res.TradingEnabled {
		metrics.OrdersTotal.WithLabelValues("blocked", side).Inc()
		e := apperrors.New(apperrors.ErrTradingDisabled, res.Reason, nil)
		e.Suggestion = fmt.Sprintf("trading gate stopped at %s", res.Stage)
		return nil, e
	}

	unsigned, err := req.Order.Unsigned(req.NegRisk)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("rejected", side).Inc()
		return nil, err
	}
	td := unsigned.TypedData(s.builder.ChainID)
	if err := signer.VerifyTypedData(td, req.Order.Signature, common.HexToAddress(req.Order.Signer)); err != nil {
		metrics.OrdersTotal.WithLabelValues("rejected", side).Inc()
		return nil, apperrors.New(apperrors.ErrInvalidRequest, "order signature does not match signer", err)
	}

	resp, err := s.clob.PostOrder(ctx, hs, pc.APIKey, req.Order, clob.ParseOrderType(req.OrderType))
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("failed", side).Inc()
		return nil, err
	}
	metrics.OrdersTotal.WithLabelValues("accepted", side).Inc()
	s.log.Info("order submitted", "user_id", userID, "order_id", resp.OrderID, "status", resp.Status)
	return resp, nil
}

func (s *TradingService) CancelOrder(ctx context.Context, userID, orderID string) (*clob.CancelResponse, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apperrors.NewInvalidRequest("order id is required")
	}
	hs, _, err := s.clobSigner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.clob.CancelOrder(ctx, hs, orderID)
}

func (s *TradingService) EvaluateTradingGate(ctx context.Context, userID, connectedAddress string) (gate.Result, error) {
	creds, err := s.credentials(ctx, userID)
	if err != nil {
		return gate.Result{}, err
	}
	return s.gate.Evaluate(ctx, creds.Polymarket, connectedAddress), nil
}

func (s *TradingService) RefreshPrices(ctx context.Context, userID string, tickers []string) ([]kalshi.Quote, error) {
	ks, err := s.kalshiSigner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.kalshi.RefreshPrices(ctx, ks, tickers)
}

func (s *TradingService) KalshiBalance(ctx context.Context, userID string) (*kalshi.Balance, error) {
	ks, err := s.kalshiSigner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.kalshi.Balance(ctx, ks)
}

func (s *TradingService) CreateKalshiOrder(ctx context.Context, userID string, req model.KalshiOrderRequest) (*kalshi.Order, error) {
	ks, err := s.kalshiSigner(ctx, userID)
	if err != nil {
		return nil, err
	}
	o, err := s.kalshi.CreateOrder(ctx, ks, kalshi.OrderRequest{
		Ticker:        req.Ticker,
		Action:        req.Action,
		Side:          req.Side,
		Count:         req.Count,
		PriceCents:    req.PriceCents,
		ClientOrderID: req.ClientOrderID,
	})
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("failed", strings.ToUpper(req.Action)).Inc()
		return nil, err
	}
	metrics.OrdersTotal.WithLabelValues("accepted", strings.ToUpper(req.Action)).Inc()
	return o, nil
}

// UpsertCredentials replaces the venue sections present in req. Keys are
// validated before anything is written.
func (s *TradingService) UpsertCredentials(ctx context.Context, userID string, req model.UpsertCredentialsRequest) error {
	if req.Kalshi == nil && req.Polymarket == nil {
		return apperrors.NewInvalidRequest("at least one venue section is required")
	}
	creds, err := s.credentials(ctx, userID)
	if err != nil {
		return err
	}
	if req.Kalshi != nil {
		if _, err := signer.NewRSAPSS(req.Kalshi.APIKeyID, req.Kalshi.PrivateKey); err != nil {
			return err
		}
		creds.Kalshi = req.Kalshi
	}
	if req.Polymarket != nil {
		if _, err := signer.DecodeSecret(req.Polymarket.Secret); err != nil {
			return err
		}
		if a := req.Polymarket.OwnerAddress; a != "" && !common.IsHexAddress(a) {
			return apperrors.NewInvalidRequest("owner_address must be a hex address")
		}
		creds.Polymarket = req.Polymarket
	}
	creds.UserID = userID
	return s.store.Upsert(ctx, creds)
}
