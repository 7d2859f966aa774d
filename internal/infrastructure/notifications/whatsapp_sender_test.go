package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/carebooking/pkg/config"
)

func newTestSender(t *testing.T, handler http.HandlerFunc) *WhatsAppCloudSender {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sender, err := NewWhatsAppCloudSender(&config.WhatsAppConfig{
		AccessToken:   "test_token",
		PhoneNumberID: "123456789",
		BaseURL:       server.URL + "/",
	})
	require.NoError(t, err)
	return sender
}

func respondWithID(id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"` + id + `"}]}`))
	}
}

func TestNewWhatsAppCloudSender(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.WhatsAppConfig
		wantErr bool
	}{
		{"valid credentials", config.WhatsAppConfig{AccessToken: "t", PhoneNumberID: "1"}, false},
		{"missing access token", config.WhatsAppConfig{PhoneNumberID: "1"}, true},
		{"missing phone number ID", config.WhatsAppConfig{AccessToken: "t"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, err := NewWhatsAppCloudSender(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, sender)
		})
	}
}

func TestWhatsAppCloudSender_SendText(t *testing.T) {
	var got WhatsAppTextMessage
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/123456789/messages", r.URL.Path)
		assert.Equal(t, "Bearer test_token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respondWithID("wamid.text123")(w, r)
	})

	id, err := sender.SendText(context.Background(), "+91 98450-00001", "New booking")
	require.NoError(t, err)

	assert.Equal(t, "wamid.text123", id)
	assert.Equal(t, "919845000001", got.To)
	assert.Equal(t, "text", got.Type)
	assert.Equal(t, "New booking", got.Text.Body)
}

func TestWhatsAppCloudSender_SendTemplate(t *testing.T) {
	var got WhatsAppTemplateMessage
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respondWithID("wamid.test123")(w, r)
	})

	id, err := sender.SendTemplate(context.Background(), "919845000001", "appointment_confirmation", "en_US",
		[]string{"Monday, Mar 2", "09:30 AM", "City Clinic"})
	require.NoError(t, err)

	assert.Equal(t, "wamid.test123", id)
	assert.Equal(t, "appointment_confirmation", got.Template.Name)
	require.Len(t, got.Template.Components, 1)
	assert.Len(t, got.Template.Components[0].Parameters, 3)
}

func TestWhatsAppCloudSender_TemplateWithoutParameters(t *testing.T) {
	var raw map[string]interface{}
	sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		respondWithID("wamid.test456")(w, r)
	})

	_, err := sender.SendTemplate(context.Background(), "919845000001", "hello_world", "en_US", nil)
	require.NoError(t, err)
	assert.NotContains(t, raw["template"], "components")
}

func TestWhatsAppCloudSender_Errors(t *testing.T) {
	t.Run("api error status", func(t *testing.T) {
		sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
		})
		_, err := sender.SendText(context.Background(), "1", "hi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 429")
	})

	t.Run("no message id", func(t *testing.T) {
		sender := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"messages":[]}`))
		})
		_, err := sender.SendText(context.Background(), "1", "hi")
		assert.EqualError(t, err, "no message ID in response")
	})

	t.Run("network error", func(t *testing.T) {
		sender := &WhatsAppCloudSender{
			accessToken:   "test_token",
			phoneNumberID: "123456789",
			httpClient:    &http.Client{},
		}
		_, err := sender.SendText(context.Background(), "1", "hi")
		assert.Error(t, err)
	})
}
