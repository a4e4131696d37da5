package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"quizflow-service/internal/app"
	"quizflow-service/internal/domain"
)

func TestWebSocketRunFlow(t *testing.T) {
	service := newTestService()
	versionID := publishedEligibility(t, service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/runs", NewWSHandler(service).ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/runs?versionId=" + versionID + "&userId=u1&email=u1@example.com"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The run starts on the first question.
	_, payload := readNext(conn, t, "node")
	if key := nodeKey(payload); key != "start" {
		t.Fatalf("expected start node, got %q", key)
	}
	runID := payload["run"].(map[string]any)["id"].(string)

	sendAnswer(t, conn, "maybe")
	readNext(conn, t, "error")

	sendAnswer(t, conn, "yes")
	_, payload = readNext(conn, t, "node")
	if key := nodeKey(payload); key != "age" {
		t.Fatalf("expected age node, got %q", key)
	}

	sendAnswer(t, conn, 42)
	_, payload = readNext(conn, t, "completed")
	if key := nodeKey(payload); key != "adult" {
		t.Fatalf("expected adult result, got %q", key)
	}

	sendAnswer(t, conn, 43)
	readNext(conn, t, "error")

	// A second socket can resume the run by id.
	resume, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"/ws/runs?runId="+runID, nil)
	if err != nil {
		t.Fatalf("dial resume: %v", err)
	}
	defer resume.Close()
	readNext(resume, t, "completed")
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(newTestService()).ServeWS))
	defer server.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):], nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", resp)
	}
}

func TestWebSocketUnknownVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(newTestService()).ServeWS))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"?versionId=missing", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_, payload := readNext(conn, t, "error")
	if payload["message"] != domain.ErrVersionNotFound.Error() {
		t.Fatalf("unexpected error payload: %v", payload)
	}
}

func sendAnswer(t *testing.T, conn *websocket.Conn, value any) {
	t.Helper()
	msg := map[string]any{"type": "answer", "payload": map[string]any{"value": value}}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write answer: %v", err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func nodeKey(payload map[string]any) string {
	node, _ := payload["node"].(map[string]any)
	key, _ := node["key"].(string)
	return key
}

func publishedEligibility(t *testing.T, service *app.FlowService) string {
	t.Helper()
	ctx := context.Background()
	version, err := service.CreateVersion(ctx, "eligibility", "editor")
	if err != nil {
		t.Fatalf("create version: %v", err)
	}
	nodes := []domain.QuizNode{
		{ID: "n-start", Type: domain.NodeQuestion, Key: "start", Title: "Eligible?", OrderIndex: 0,
			Config: domain.NodeConfig{QuestionType: domain.QuestionSingleChoice, Required: true,
				Options: []domain.Option{{Label: "Yes", Value: "yes"}, {Label: "No", Value: "no"}}}},
		{ID: "n-age", Type: domain.NodeQuestion, Key: "age", Title: "Age?", OrderIndex: 1,
			Config: domain.NodeConfig{QuestionType: domain.QuestionNumber, Required: true}},
		{ID: "n-adult", Type: domain.NodeResult, Key: "adult", Title: "Welcome", OrderIndex: 2},
		{ID: "n-nope", Type: domain.NodeResult, Key: "nope", Title: "Bye", OrderIndex: 3},
	}
	for _, n := range nodes {
		if _, err := service.AddNode(ctx, version.ID, n); err != nil {
			t.Fatalf("add node %s: %v", n.Key, err)
		}
	}
	edges := []domain.QuizEdge{
		{FromNodeID: "n-start", ToNodeID: "n-age",
			Condition: &domain.Condition{Field: "start", Operator: domain.OpEquals, Value: "yes"}},
		{FromNodeID: "n-start", ToNodeID: "n-nope", Priority: 1, IsDefault: true},
		{FromNodeID: "n-age", ToNodeID: "n-adult"},
	}
	for _, e := range edges {
		if _, err := service.AddEdge(ctx, version.ID, e); err != nil {
			t.Fatalf("add edge: %v", err)
		}
	}
	if _, _, err := service.PublishVersion(ctx, version.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}
	return version.ID
}

func TestOutboxStopsOnceWriterExits(t *testing.T) {
	out := outbox{
		send: make(chan outboundMessage[any]),
		done: make(chan struct{}),
	}
	close(out.done)

	result := make(chan bool, 1)
	go func() { result <- out.push(errorMessage("late")) }()

	select {
	case ok := <-result:
		if ok {
			t.Fatal("expected push to fail after the writer stopped")
		}
	case <-time.After(time.Second):
		t.Fatal("push blocked after the writer stopped")
	}
}

func TestOutboxDeliversWhileWriterRuns(t *testing.T) {
	out := outbox{
		send: make(chan outboundMessage[any], 1),
		done: make(chan struct{}),
	}
	if !out.push(errorMessage("hello")) {
		t.Fatal("expected push to succeed")
	}
	if msg := <-out.send; msg.Type != "error" {
		t.Fatalf("unexpected message %+v", msg)
	}
}
