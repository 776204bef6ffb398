package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/greenpaw/ecobuddies/backend/internal/model/catalog"
	model "github.com/greenpaw/ecobuddies/backend/internal/model/session"
	"github.com/greenpaw/ecobuddies/backend/internal/service/flow"
	sessionservice "github.com/greenpaw/ecobuddies/backend/internal/service/session"
)

// stubGateway answers every generation request with fixed text.
type stubGateway struct{}

func (stubGateway) Intro(_ context.Context, c catalog.Companion, _ *model.Profile) (string, error) {
	return "intro from " + c.Name, nil
}

func (stubGateway) OpeningLine(_ context.Context, c catalog.Companion, _ *model.Profile, _ int) (string, error) {
	return "hi, I'm " + c.Name, nil
}

func (stubGateway) Reply(_ context.Context, _ catalog.Companion, _ *model.Profile, _ int, _ []model.ChatMessage, msg string) (string, error) {
	return "reply to " + msg, nil
}

func (stubGateway) SuggestSteps(_ context.Context, _ catalog.Companion, _ *model.Profile, _ catalog.Action) ([]string, error) {
	return []string{"first", "second", "third"}, nil
}

func (stubGateway) Explain(_ context.Context, _ catalog.Companion, _ *model.Profile, _ catalog.Action, _ string, _ model.ExpandMode) (string, error) {
	return "because it helps", nil
}

func (stubGateway) DescribeImage(_ context.Context, _ catalog.Companion, _ []byte, _ string) (string, error) {
	return "a soda can", nil
}

func setupRouter(t *testing.T, gw flow.Gateway) *chi.Mux {
	t.Helper()

	store, err := catalog.NewMemoryStore(catalog.Seed())
	if err != nil {
		t.Fatalf("catalog err: %v", err)
	}
	machine := flow.NewMachine(sessionservice.NewService(), store, gw)
	handler := New(machine)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal err: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader([]byte(`{}`))
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeSession(t *testing.T, resp *httptest.ResponseRecorder) model.Session {
	t.Helper()

	var sess model.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return sess
}

func createSession(t *testing.T, r http.Handler) model.Session {
	t.Helper()

	resp := doJSON(t, r, http.MethodPost, "/session", nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	return decodeSession(t, resp)
}

func TestCreateSessionStartsAtIntro(t *testing.T) {
	r := setupRouter(t, stubGateway{})
	sess := createSession(t, r)

	if sess.ID == "" {
		t.Fatal("expected session id")
	}
	if sess.Screen != model.ScreenIntro {
		t.Fatalf("expected intro screen, got %q", sess.Screen)
	}
}

func TestGetUnknownSession(t *testing.T) {
	r := setupRouter(t, stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/session/nope", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestInvalidEventIsRejectedAsNoOp(t *testing.T) {
	r := setupRouter(t, stubGateway{})
	sess := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/session/"+sess.ID+"/task/complete", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	// The session must survive the bad event.
	resp = doJSON(t, r, http.MethodPost, "/session/"+sess.ID+"/next", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 after recovery, got %d", resp.Code)
	}
}

func advanceToActions(t *testing.T, r http.Handler, id string) {
	t.Helper()

	for _, step := range []struct {
		path string
		body any
	}{
		{"/next", nil},
		{"/profile", model.Profile{Age: 11, Student: true}},
		{"/companion", map[string]string{"companionId": "koala"}},
		{"/next", nil},
	} {
		resp := doJSON(t, r, http.MethodPost, "/session/"+id+step.path, step.body)
		if resp.Code != http.StatusOK {
			t.Fatalf("step %s: expected 200, got %d (%s)", step.path, resp.Code, resp.Body.String())
		}
	}
}

func TestTaskCompletionThroughAPI(t *testing.T) {
	r := setupRouter(t, stubGateway{})
	sess := createSession(t, r)
	advanceToActions(t, r, sess.ID)

	resp := doJSON(t, r, http.MethodPost, "/session/"+sess.ID+"/task", map[string]string{"name": "Recycle Something Today"})
	if resp.Code != http.StatusOK {
		t.Fatalf("pick task: expected 200, got %d", resp.Code)
	}
	picked := decodeSession(t, resp)
	if picked.PageNumber != model.PageTaskDetail {
		t.Fatalf("expected task detail page, got %d", picked.PageNumber)
	}

	resp = doJSON(t, r, http.MethodPost, "/session/"+sess.ID+"/task/complete", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d", resp.Code)
	}
	done := decodeSession(t, resp)
	if done.TotalPoints != 5 || done.Happiness != 55 {
		t.Fatalf("unexpected totals: points=%d happiness=%d", done.TotalPoints, done.Happiness)
	}
	if done.PageNumber != model.PageActions {
		t.Fatalf("expected actions page, got %d", done.PageNumber)
	}
}

func TestChatThroughAPI(t *testing.T) {
	r := setupRouter(t, stubGateway{})
	sess := createSession(t, r)
	advanceToActions(t, r, sess.ID)

	resp := doJSON(t, r, http.MethodPost, "/session/"+sess.ID+"/chat/open", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("chat open: expected 200, got %d", resp.Code)
	}

	resp = doJSON(t, r, http.MethodPost, "/session/"+sess.ID+"/chat", map[string]string{"message": "hello"})
	if resp.Code != http.StatusOK {
		t.Fatalf("chat: expected 200, got %d", resp.Code)
	}
	after := decodeSession(t, resp)
	if len(after.ChatHistory) != 3 {
		t.Fatalf("expected 3 chat entries, got %d", len(after.ChatHistory))
	}
}

func TestGatewayUnavailableMapsTo503(t *testing.T) {
	r := setupRouter(t, nil)
	sess := createSession(t, r)
	advanceToActions(t, r, sess.ID)

	resp := doJSON(t, r, http.MethodPost, "/session/"+sess.ID+"/task", map[string]string{"name": "Turn Off Lights"})
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestSubmitImageRejectsBadPayload(t *testing.T) {
	r := setupRouter(t, stubGateway{})
	sess := createSession(t, r)
	advanceToActions(t, r, sess.ID)

	resp := doJSON(t, r, http.MethodPost, "/session/"+sess.ID+"/identify/open", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("identify open: expected 200, got %d", resp.Code)
	}

	resp = doJSON(t, r, http.MethodPost, "/session/"+sess.ID+"/identify", map[string]string{"imageBase64": "not base64!!"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
