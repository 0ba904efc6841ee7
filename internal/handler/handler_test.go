package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"linkbook/invitehub/internal/config"
	"linkbook/invitehub/internal/model"
	"linkbook/invitehub/internal/repository"
	"linkbook/invitehub/internal/service"
	jwtpkg "linkbook/invitehub/pkg/jwt"
)

const (
	testSigningKey = "test-signing-key"
	testIssuer     = "linkbook"
	adminUID       = "admin-uid"
)

type testServer struct {
	router *gin.Engine
	repo   repository.SubscriptionRepository
	jwt    *jwtpkg.Manager
}

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Mode: "test"},
		Admin:   config.AdminConfig{UserIDs: []string{adminUID}},
		CORS:    config.CORSConfig{AllowedMethods: []string{"GET", "POST"}},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := config.NewSQLiteDB(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	logger := zaptest.NewLogger(t)
	repo := repository.NewGormSubscriptionRepository(db)
	index := repository.NewMemoryCodeIndex()
	inviteSvc := service.NewInviteService(repo, index, config.InviteConfig{}, config.IndexConfig{}, logger)
	subSvc := service.NewSubscriptionService(repo, index, config.InviteConfig{}, logger)

	return newTestServerWith(t, repo, inviteSvc, subSvc)
}

func newTestServerWith(t *testing.T, repo repository.SubscriptionRepository, inviteSvc service.InviteService, subSvc service.SubscriptionService) *testServer {
	t.Helper()
	jwtManager := jwtpkg.NewManager(testSigningKey, testIssuer)
	router := SetupRouter(testConfig(), zaptest.NewLogger(t), jwtManager,
		NewInviteHandler(inviteSvc),
		NewSubscriptionHandler(subSvc),
		NewAdminHandler(inviteSvc),
	)
	return &testServer{router: router, repo: repo, jwt: jwtManager}
}

func (s *testServer) seed(t *testing.T, userID string, trialEnd time.Time, codes ...string) {
	t.Helper()
	sub := &model.Subscription{
		UserID:         userID,
		Plan:           model.PlanTrial,
		TrialStartDate: trialEnd.Add(-15 * 24 * time.Hour),
		TrialEndDate:   trialEnd,
	}
	for _, c := range codes {
		sub.InviteCodes = append(sub.InviteCodes, model.InviteCode{Code: c, CreatedAt: sub.TrialStartDate})
	}
	require.NoError(t, s.repo.Create(context.Background(), sub))
}

func (s *testServer) token(t *testing.T, uid string) string {
	t.Helper()
	tok, err := s.jwt.GenerateAccessToken(uid, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, body, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

// stubInviteService returns fixed results for the error paths that a real
// store is awkward to provoke.
type stubInviteService struct {
	err    error
	panics bool
}

func (s stubInviteService) Validate(context.Context, string) (*service.ValidateResult, error) {
	if s.panics {
		panic("boom")
	}
	return nil, s.err
}

func (s stubInviteService) Redeem(context.Context, string, string) (*service.RedeemResult, error) {
	return nil, s.err
}

func (s stubInviteService) ListInviteCodes(context.Context, service.InviteCodeFilter) ([]service.InviteCodeEntry, error) {
	return nil, s.err
}

func (s stubInviteService) RebuildIndex(context.Context) (*service.ReindexReport, error) {
	return nil, s.err
}

func storeFailure() error {
	return fmt.Errorf("%w: %v", service.ErrStore, "connection refused")
}
