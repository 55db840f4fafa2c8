package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	// Ollamaサーバーのモック
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req GenerateRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		assert.NoError(t, err)

		// 固定の生成パラメータを確認
		assert.Equal(t, "llama3", req.Model)
		assert.False(t, req.Stream)
		assert.InDelta(t, 0.3, req.Options.Temperature, 0.0001)
		assert.Equal(t, 8192, req.Options.NumCtx)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(GenerateResponse{
			Model:    req.Model,
			Response: "OVERVIEW:\nThis is a sales dataset.",
			Done:     true,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "llama3", 10*time.Second)

	text, err := client.Generate(context.Background(), "describe this dataset")
	assert.NoError(t, err)
	assert.Equal(t, "OVERVIEW:\nThis is a sales dataset.", text)
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "missing-model", 10*time.Second)

	_, err := client.Generate(context.Background(), "hello")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestGenerateConnectionRefused(t *testing.T) {
	// 接続先が存在しない場合はエラーを返す
	client := NewClient("http://127.0.0.1:1", "llama3", 2*time.Second)

	_, err := client.Generate(context.Background(), "hello")
	assert.Error(t, err)
}

func TestGenerateInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "llama3", 10*time.Second)

	_, err := client.Generate(context.Background(), "hello")
	assert.Error(t, err)
}
