package messaging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"attestbot/internal/logger"
)

// RPCMessenger delivers chat messages through the headless wallet daemon,
// which owns the device connection to the hub. Delivery failures are logged
// and dropped; chat replies are not worth retrying.
type RPCMessenger struct {
	url    string
	client *http.Client
}

func NewRPCMessenger(url string) *RPCMessenger {
	return &RPCMessenger{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (m *RPCMessenger) SendText(deviceAddress string, text string) {
	body, err := json.Marshal(map[string]interface{}{
		"method": "send_text",
		"params": map[string]string{
			"device_address": deviceAddress,
			"text":           text,
		},
	})
	if err != nil {
		logger.Error("failed to encode chat message", zap.Error(err))
		return
	}

	resp, err := m.client.Post(m.url, "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Error("failed to send chat message",
			zap.String("deviceAddress", deviceAddress), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Error("failed to send chat message",
			zap.String("deviceAddress", deviceAddress),
			zap.Error(fmt.Errorf("status %d", resp.StatusCode)))
	}
}
