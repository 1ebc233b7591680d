package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	telegram "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/conversation"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/notify"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/reminders"
	"github.com/smith3v/tg-bible-reminder/pkg/internal/testutil"
	"github.com/smith3v/tg-bible-reminder/pkg/logger"
	"github.com/smith3v/tg-bible-reminder/pkg/schedule"
	"github.com/smith3v/tg-bible-reminder/pkg/store"
)

type recordedRequest struct {
	path        string
	method      string
	contentType string
	body        []byte
}

type mockClient struct {
	requests []recordedRequest
	response string
}

func newMockClient() *mockClient {
	return &mockClient{
		response: `{"ok":true,"result":{}}`,
	}
}

func (m *mockClient) Do(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if err := req.Body.Close(); err != nil {
		return nil, fmt.Errorf("failed to close request body: %w", err)
	}
	m.requests = append(m.requests, recordedRequest{
		path:        req.URL.Path,
		method:      req.Method,
		contentType: req.Header.Get("Content-Type"),
		body:        body,
	})

	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(m.response)),
		Header:     make(http.Header),
	}
	return resp, nil
}

func (m *mockClient) lastMessageText(t *testing.T) string {
	t.Helper()
	if len(m.requests) == 0 {
		t.Fatalf("expected at least one recorded request")
	}
	return requestField(t, m.requests[len(m.requests)-1], "text")
}

// sentTexts returns the text field of every sendMessage call, in order.
func (m *mockClient) sentTexts(t *testing.T) []string {
	t.Helper()
	var texts []string
	for _, req := range m.requests {
		if strings.HasSuffix(req.path, "/sendMessage") {
			texts = append(texts, requestField(t, req, "text"))
		}
	}
	return texts
}

func (m *mockClient) paths() []string {
	paths := make([]string, 0, len(m.requests))
	for _, req := range m.requests {
		paths = append(paths, req.path[strings.LastIndex(req.path, "/")+1:])
	}
	return paths
}

func requestField(t *testing.T, req recordedRequest, fieldName string) string {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(req.contentType)
	if err != nil {
		t.Fatalf("failed to parse media type: %v", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		t.Fatalf("unexpected media type: %s", mediaType)
	}

	reader := multipart.NewReader(bytes.NewReader(req.body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read multipart part: %v", err)
		}
		if part.FormName() == fieldName {
			data, err := io.ReadAll(part)
			if err != nil {
				t.Fatalf("failed to read %s part: %v", fieldName, err)
			}
			return string(data)
		}
	}
	t.Fatalf("field %q not found in request", fieldName)
	return ""
}

func (m *mockClient) lastField(t *testing.T, fieldName string) string {
	t.Helper()
	if len(m.requests) == 0 {
		t.Fatalf("expected at least one recorded request")
	}
	return requestField(t, m.requests[len(m.requests)-1], fieldName)
}

func newTestTelegramBot(t *testing.T, client *mockClient) *telegram.Bot {
	t.Helper()
	b, err := telegram.New("test-token",
		telegram.WithSkipGetMe(),
		telegram.WithHTTPClient(time.Second, client),
	)
	if err != nil {
		t.Fatalf("failed to create test bot: %v", err)
	}
	return b
}

func newTestUpdate(text string, userID int64) *models.Update {
	return &models.Update{
		Message: &models.Message{
			From: &models.User{
				ID: userID,
			},
			Chat: models.Chat{
				ID: userID,
			},
			Text: text,
		},
	}
}

var testToday = time.Date(2022, 6, 1, 9, 0, 0, 0, time.UTC)

const testScheduleCSV = "date,nt,ot\n06-01-22,Romans 1,Job 1\n06-02-22,Romans 2,Job 2\n"

// newTestHandlers wires handlers against a fresh in-memory database and a
// schedule file whose clock is pinned to testToday.
func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	logger.SetLogLevel(logger.ERROR)
	gdb := testutil.SetupTestDB(t)
	stores := store.NewGorm(gdb)

	path := filepath.Join(t.TempDir(), "schedule.csv")
	if err := os.WriteFile(path, []byte(testScheduleCSV), 0o600); err != nil {
		t.Fatalf("failed to write schedule: %v", err)
	}
	repo := schedule.NewRepository(path)
	repo.Now = func() time.Time { return testToday }

	registry := reminders.NewRegistry(stores, func(context.Context, int64) {})

	return &Handlers{
		Registry:      registry,
		Preferences:   stores,
		Conversations: conversation.NewManager(stores, time.Hour, func() time.Time { return testToday }),
		Reminder:      &notify.Reminder{Preferences: stores, Composer: notify.NewComposer(repo)},
		Schedule:      repo,
	}
}
