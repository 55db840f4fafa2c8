package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client はローカルで稼働するOllamaサーバーの /api/generate への
// リクエストを管理します。推論サーバーは信頼できない外部依存として扱い、
// エラー処理（リトライ・空文字へのフォールバック）は呼び出し側の
// サービス層で行います。
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

// NewClient は新しいOllamaクライアントを作成します。
// endpointには "http://localhost:11434" のようなベースURLを設定します。
// timeoutは1リクエストあたりの上限時間です（0以下の場合は300秒）。
func NewClient(endpoint, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		model:    model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// --- データ構造定義 ---

// GenerateOptions 生成パラメータ
type GenerateOptions struct {
	Temperature float32 `json:"temperature"`
	NumCtx      int     `json:"num_ctx"`
}

// GenerateRequest /api/generate リクエスト
type GenerateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options GenerateOptions `json:"options"`
}

// GenerateResponse /api/generate レスポンス
type GenerateResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

// --- メソッド定義 ---

// Generate はプロンプトを送信し、生成されたテキストを返します。
// 決定的な出力に寄せるため temperature=0.3、コンテキスト長は8192で固定です。
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/api/generate", strings.TrimSuffix(c.endpoint, "/"))

	request := GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: GenerateOptions{
			Temperature: 0.3,
			NumCtx:      8192,
		},
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("リクエストのJSON化に失敗: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの実行に失敗: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("レスポンスの読み取りに失敗: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Ollama API エラー (status: %d): %s", resp.StatusCode, string(body))
	}

	var response GenerateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("レスポンスのJSON解析に失敗: %w", err)
	}

	return response.Response, nil
}

// Model は設定されているモデル名を返します。
func (c *Client) Model() string {
	return c.model
}
