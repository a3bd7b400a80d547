package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/athlete-network/internal/domain/user"
	"github.com/riskibarqy/athlete-network/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/athlete-network/internal/platform/id"
	"github.com/riskibarqy/athlete-network/internal/platform/logging"
	"github.com/riskibarqy/athlete-network/internal/platform/resilience"
	"github.com/riskibarqy/athlete-network/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenAsUserVerifier accepts any token naming a known profile.
type tokenAsUserVerifier struct {
	directory *memory.UserDirectory
}

func (v tokenAsUserVerifier) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	if _, ok, _ := v.directory.GetProfile(ctx, token); !ok {
		return user.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
	}
	return user.Principal{UserID: token}, nil
}

type testEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       json.RawMessage  `json:"data"`
	Error      *googleErrorBody `json:"error"`
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.NewNop()
	idGen := id.NewUUIDGenerator()
	clubLocks := &resilience.KeyedMutex{}
	pairLocks := &resilience.KeyedMutex{}
	clubRepo := memory.NewClubRepository()
	opportunityRepo := memory.NewOpportunityRepository()
	affiliationRepo := memory.NewAffiliationRepository()
	directory := memory.NewUserDirectory(memory.SeedProfiles())

	affiliations := usecase.NewAffiliationService(affiliationRepo, directory, idGen, pairLocks, nil, logger)
	handler := NewHandler(
		usecase.NewClubService(clubRepo, idGen, clubLocks, logger),
		usecase.NewJoinRequestService(clubRepo, idGen, clubLocks, nil, logger),
		usecase.NewOpportunityService(clubRepo, opportunityRepo, idGen, logger),
		usecase.NewApplicationService(clubRepo, opportunityRepo, affiliations, directory, idGen, pairLocks, nil, logger),
		affiliations,
		logger,
	)
	return NewRouter(handler, tokenAsUserVerifier{directory: directory}, logger, nil, "athlete-network-test")
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) (int, testEnvelope) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := sonic.Marshal(body)
		require.NoError(t, err)
		payload = raw
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env testEnvelope
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec.Code, env
}

func decodeData[T any](t *testing.T, env testEnvelope) T {
	t.Helper()

	var out T
	require.NoError(t, sonic.Unmarshal(env.Data, &out))
	return out
}

func errorReason(env testEnvelope) string {
	if env.Error == nil || len(env.Error.Errors) == 0 {
		return ""
	}
	return env.Error.Errors[0].Reason
}

func createTestClub(t *testing.T, router http.Handler, ownerID string) clubDTO {
	t.Helper()

	status, env := doRequest(t, router, http.MethodPost, "/v1/clubs", ownerID, map[string]any{
		"name":    "Harbor City FC",
		"sports":  []string{"football"},
		"city":    "Lisbon",
		"country": "PT",
	})
	require.Equal(t, http.StatusCreated, status)
	return decodeData[clubDTO](t, env)
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t)

	status, env := doRequest(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, googleAPIVersion, env.APIVersion)
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	router := newTestRouter(t)

	status, env := doRequest(t, router, http.MethodGet, "/v1/clubs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Status)

	status, _ = doRequest(t, router, http.MethodGet, "/v1/clubs", "no-such-user", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRouter_JoinRequestFlow(t *testing.T) {
	router := newTestRouter(t)
	c := createTestClub(t, router, memory.UserIDClubOwner)
	assert.Equal(t, 1, c.MembersCount)

	status, env := doRequest(t, router, http.MethodPost, "/v1/clubs/"+c.ID+"/join-requests", memory.UserIDPlayerAmara, nil)
	require.Equal(t, http.StatusCreated, status)
	jr := decodeData[joinRequestDTO](t, env)
	assert.Equal(t, "pending", jr.Status)

	status, env = doRequest(t, router, http.MethodPost, "/v1/clubs/"+c.ID+"/join-requests", memory.UserIDPlayerAmara, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "duplicateJoinRequest", errorReason(env))

	status, env = doRequest(t, router, http.MethodGet, "/v1/clubs/"+c.ID+"/join-requests", memory.UserIDPlayerAmara, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = doRequest(t, router, http.MethodGet, "/v1/clubs/"+c.ID+"/join-requests", memory.UserIDClubOwner, nil)
	require.Equal(t, http.StatusOK, status)
	pending := decodeData[[]joinRequestDTO](t, env)
	require.Len(t, pending, 1)

	status, env = doRequest(t, router, http.MethodPost, "/v1/join-requests/"+jr.ID+"/accept", memory.UserIDClubOwner, nil)
	require.Equal(t, http.StatusOK, status)
	m := decodeData[membershipDTO](t, env)
	assert.Equal(t, memory.UserIDPlayerAmara, m.UserID)
	assert.True(t, m.IsActive)

	status, env = doRequest(t, router, http.MethodPost, "/v1/join-requests/"+jr.ID+"/reject", memory.UserIDClubOwner, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "invalidStateTransition", errorReason(env))

	status, env = doRequest(t, router, http.MethodGet, "/v1/clubs/"+c.ID, memory.UserIDPlayerAmara, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, decodeData[clubDTO](t, env).MembersCount)

	status, _ = doRequest(t, router, http.MethodPost, "/v1/clubs/"+c.ID+"/leave", memory.UserIDPlayerAmara, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = doRequest(t, router, http.MethodPost, "/v1/clubs/"+c.ID+"/leave", memory.UserIDClubOwner, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "lastAdmin", errorReason(env))
}

func TestRouter_ApplicationFlow(t *testing.T) {
	router := newTestRouter(t)
	c := createTestClub(t, router, memory.UserIDClubOwner)

	status, env := doRequest(t, router, http.MethodPost, "/v1/clubs/"+c.ID+"/opportunities", memory.UserIDClubOwner, map[string]any{
		"title":         "Winger trial",
		"type":          "trial",
		"sport":         "football",
		"role_required": "player",
		"expiry_date":   time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, status)
	o := decodeData[opportunityDTO](t, env)
	assert.True(t, o.IsActive)

	status, env = doRequest(t, router, http.MethodGet, "/v1/opportunities?type=trial&sport=football", memory.UserIDPlayerAmara, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[[]opportunityDTO](t, env), 1)

	status, _ = doRequest(t, router, http.MethodGet, "/v1/opportunities?type=gala", memory.UserIDPlayerAmara, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = doRequest(t, router, http.MethodPost, "/v1/opportunities/"+o.ID+"/applications", memory.UserIDCoachLena, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "roleMismatch", errorReason(env))

	status, env = doRequest(t, router, http.MethodPost, "/v1/opportunities/"+o.ID+"/applications", memory.UserIDPlayerAmara, map[string]any{
		"message": "Available from next month",
	})
	require.Equal(t, http.StatusCreated, status)
	app := decodeData[applicationDTO](t, env)
	assert.Equal(t, "pending", app.Status)

	status, env = doRequest(t, router, http.MethodPost, "/v1/opportunities/"+o.ID+"/applications", memory.UserIDPlayerAmara, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "alreadyApplied", errorReason(env))

	status, _ = doRequest(t, router, http.MethodPost, "/v1/applications/"+app.ID+"/decision", memory.UserIDPlayerAmara, map[string]any{
		"decision": "accepted",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = doRequest(t, router, http.MethodPost, "/v1/applications/"+app.ID+"/decision", memory.UserIDClubOwner, map[string]any{
		"decision": "accepted",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "accepted", decodeData[applicationDTO](t, env).Status)

	status, env = doRequest(t, router, http.MethodGet, "/v1/applications/me", memory.UserIDPlayerAmara, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[[]applicationDTO](t, env), 1)
}

func TestRouter_AgentRepresentation(t *testing.T) {
	router := newTestRouter(t)
	c := createTestClub(t, router, memory.UserIDClubOwner)

	status, env := doRequest(t, router, http.MethodPost, "/v1/clubs/"+c.ID+"/opportunities", memory.UserIDClubOwner, map[string]any{
		"title":         "Striker contract",
		"type":          "contract",
		"sport":         "football",
		"role_required": "player",
		"expiry_date":   time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, status)
	o := decodeData[opportunityDTO](t, env)

	applyPath := "/v1/opportunities/" + o.ID + "/applications"
	status, env = doRequest(t, router, http.MethodPost, applyPath, memory.UserIDAgentMarco, map[string]any{
		"player_id": memory.UserIDPlayerKofi,
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "notAuthorizedToRepresent", errorReason(env))

	status, env = doRequest(t, router, http.MethodPost, "/v1/affiliations", memory.UserIDAgentMarco, map[string]any{
		"player_id": memory.UserIDPlayerKofi,
	})
	require.Equal(t, http.StatusCreated, status)
	aff := decodeData[affiliationDTO](t, env)

	status, _ = doRequest(t, router, http.MethodPost, "/v1/affiliations/"+aff.ID+"/accept", memory.UserIDAgentMarco, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = doRequest(t, router, http.MethodPost, "/v1/affiliations/"+aff.ID+"/accept", memory.UserIDPlayerKofi, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "accepted", decodeData[affiliationDTO](t, env).Status)

	status, env = doRequest(t, router, http.MethodPost, applyPath, memory.UserIDAgentMarco, map[string]any{
		"player_id": memory.UserIDPlayerKofi,
	})
	require.Equal(t, http.StatusCreated, status)
	app := decodeData[applicationDTO](t, env)
	assert.Equal(t, memory.UserIDPlayerKofi, app.ApplicantID)
	assert.Equal(t, memory.UserIDAgentMarco, app.AgentID)

	status, env = doRequest(t, router, http.MethodGet, "/v1/applications/represented", memory.UserIDAgentMarco, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[[]applicationDTO](t, env), 1)

	status, env = doRequest(t, router, http.MethodGet, "/v1/affiliations/me", memory.UserIDPlayerKofi, nil)
	require.Equal(t, http.StatusOK, status)
	mine := decodeData[myAffiliationsDTO](t, env)
	assert.Empty(t, mine.AsAgent)
	assert.Len(t, mine.AsPlayer, 1)
}

func TestRouter_BlockPreventsAffiliation(t *testing.T) {
	router := newTestRouter(t)

	status, env := doRequest(t, router, http.MethodPost, "/v1/blocks", memory.UserIDPlayerAmara, map[string]any{
		"agent_id": memory.UserIDAgentMarco,
		"reason":   "unsolicited contact",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, memory.UserIDAgentMarco, decodeData[blockDTO](t, env).AgentID)

	status, env = doRequest(t, router, http.MethodPost, "/v1/blocks", memory.UserIDPlayerAmara, map[string]any{
		"agent_id": memory.UserIDAgentMarco,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "alreadyBlocked", errorReason(env))

	status, env = doRequest(t, router, http.MethodPost, "/v1/affiliations", memory.UserIDAgentMarco, map[string]any{
		"player_id": memory.UserIDPlayerAmara,
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "agentBlocked", errorReason(env))

	status, _ = doRequest(t, router, http.MethodDelete, "/v1/blocks/"+memory.UserIDAgentMarco, memory.UserIDPlayerAmara, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, router, http.MethodPost, "/v1/affiliations", memory.UserIDAgentMarco, map[string]any{
		"player_id": memory.UserIDPlayerAmara,
	})
	assert.Equal(t, http.StatusCreated, status)
}

func TestRouter_RejectsUnknownFields(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/clubs", strings.NewReader(`{"name":"Harbor","owner":"someone-else"}`))
	req.Header.Set("Authorization", "Bearer "+memory.UserIDClubOwner)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalidInput")
}
