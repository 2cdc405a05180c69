package device

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rfid-bridge/internal/punch"
)

// Client: ポーラーが消費する端末クライアントの契約。
// 実体はベンダー製ドライバでもブリッジエージェントでも良い。
type Client interface {
	GetAttendances(ctx context.Context) ([]punch.Punch, error)
}

// HTTPClient: 端末のネットワークエージェントから打刻バッファをJSONで取得する。
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(host string, port int, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: fmt.Sprintf("http://%s:%d", host, port),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) GetAttendances(ctx context.Context) ([]punch.Punch, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/attendances", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("打刻バッファの取得失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("打刻バッファの取得失敗: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return DecodePunches(body)
}

// DecodePunches: レスポンスの形は素の配列と {"data":[...]} ラッパーの2通りを許容する。
// それ以外の形はそのポーリングを打ち切るデータ形式エラー。
func DecodePunches(body []byte) ([]punch.Punch, error) {
	var punches []punch.Punch
	if err := json.Unmarshal(body, &punches); err == nil {
		return punches, nil
	}

	var wrapped struct {
		Data []punch.Punch `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}
	return nil, fmt.Errorf("打刻バッファが想定外の形式")
}
