package enrichment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditwatch/internal/config"
	apperrors "auditwatch/pkg/errors"
	"auditwatch/pkg/models"
)

type recordingEnricher struct {
	name   string
	audits bool
	err    error
	calls  *[]string
}

func (r recordingEnricher) Name() string       { return r.name }
func (r recordingEnricher) EnrichAudits() bool { return r.audits }

func (r recordingEnricher) Enrich(_ context.Context, _ map[string]string, metadata map[string]interface{}) error {
	*r.calls = append(*r.calls, r.name)
	metadata[r.name] = true
	return r.err
}

func TestPipeline_OrderAndFiltering(t *testing.T) {
	var calls []string
	p := NewPipeline(
		recordingEnricher{name: "a", audits: true, calls: &calls},
		recordingEnricher{name: "errors-only", audits: false, calls: &calls},
		recordingEnricher{name: "b", audits: true, calls: &calls},
	)

	metadata := map[string]interface{}{}
	require.NoError(t, p.Enrich(context.Background(), nil, metadata))

	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Equal(t, []string{"a", "b"}, p.Names())
	assert.NotContains(t, metadata, "errors-only")
}

func TestPipeline_StopsAtFirstFailure(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	p := NewPipeline(
		recordingEnricher{name: "a", audits: true, calls: &calls},
		recordingEnricher{name: "broken", audits: true, err: boom, calls: &calls},
		recordingEnricher{name: "c", audits: true, calls: &calls},
	)

	err := p.Enrich(context.Background(), nil, map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, apperrors.ErrEnrichment)
	assert.Equal(t, []string{"a", "broken"}, calls)
}

func TestPipeline_CancelledContext(t *testing.T) {
	var calls []string
	p := NewPipeline(recordingEnricher{name: "a", audits: true, calls: &calls})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Enrich(ctx, nil, map[string]interface{}{}), context.Canceled)
	assert.Empty(t, calls)
}

func TestMessageTypeEnricher(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		wantType   interface{}
		wantSystem bool
	}{
		{
			name: "assembly qualified list",
			headers: map[string]string{
				models.HeaderEnclosedMessageTypes: "Sales.Messages.OrderPlaced, Sales.Messages, Version=1.0.0.0;Sales.IEvent, Sales",
			},
			wantType: "Sales.Messages.OrderPlaced",
		},
		{
			name: "control message",
			headers: map[string]string{
				models.HeaderEnclosedMessageTypes: "Bus.Subscribe",
				models.HeaderControlMessage:       "True",
			},
			wantType:   "Bus.Subscribe",
			wantSystem: true,
		},
		{
			name:       "no type",
			headers:    map[string]string{},
			wantType:   nil,
			wantSystem: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metadata := map[string]interface{}{}
			require.NoError(t, messageTypeEnricher{}.Enrich(context.Background(), tt.headers, metadata))

			assert.Equal(t, tt.wantType, metadata[KeyMessageType])
			assert.Equal(t, tt.wantSystem, metadata[KeyIsSystemMessage])
		})
	}
}

func TestMessageTypeEnricher_Searchable(t *testing.T) {
	metadata := map[string]interface{}{}
	headers := map[string]string{models.HeaderEnclosedMessageTypes: "Sales.Outer+Inner, Sales"}

	require.NoError(t, messageTypeEnricher{}.Enrich(context.Background(), headers, metadata))
	assert.Equal(t, "Sales Outer Inner", metadata[KeySearchableMessageType])
}

func TestEndpointsAndConversation(t *testing.T) {
	headers := map[string]string{
		models.HeaderOriginatingEndpoint: "Web",
		models.HeaderOriginatingMachine:  "web-1",
		models.HeaderProcessingEndpoint:  "Sales",
		models.HeaderProcessingMachine:   "sales-2",
		models.HeaderConversationID:      "conv-9",
	}
	metadata := map[string]interface{}{}

	require.NoError(t, endpointsEnricher{}.Enrich(context.Background(), headers, metadata))
	require.NoError(t, conversationEnricher{}.Enrich(context.Background(), headers, metadata))

	assert.Equal(t, EndpointDetails{Name: "Web", Host: "web-1"}, metadata[KeySendingEndpoint])
	assert.Equal(t, EndpointDetails{Name: "Sales", Host: "sales-2"}, metadata[KeyReceivingEndpoint])
	assert.Equal(t, "conv-9", metadata[KeyConversationID])
}

func TestProcessingStatisticsEnricher(t *testing.T) {
	sent := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	headers := map[string]string{
		models.HeaderTimeSent:          models.FormatWireTime(sent),
		models.HeaderProcessingStarted: models.FormatWireTime(sent.Add(2 * time.Second)),
		models.HeaderProcessingEnded:   models.FormatWireTime(sent.Add(5 * time.Second)),
	}
	metadata := map[string]interface{}{}

	require.NoError(t, processingStatisticsEnricher{}.Enrich(context.Background(), headers, metadata))

	assert.True(t, sent.Equal(metadata[KeyTimeSent].(time.Time)))
	assert.Equal(t, 5*time.Second, metadata[KeyCriticalTime])
	assert.Equal(t, 3*time.Second, metadata[KeyProcessingTime])
	assert.Equal(t, 2*time.Second, metadata[KeyDeliveryTime])
}

func TestProcessingStatisticsEnricher_Malformed(t *testing.T) {
	headers := map[string]string{models.HeaderTimeSent: "not a time"}

	err := processingStatisticsEnricher{}.Enrich(context.Background(), headers, map[string]interface{}{})
	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
}

func TestBuild(t *testing.T) {
	p, err := Build(config.EnrichmentConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultOrder, p.Names())

	p, err = Build(config.EnrichmentConfig{Enrichers: []string{"endpoints", "message_type"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"endpoints", "message_type"}, p.Names())

	_, err = Build(config.EnrichmentConfig{Enrichers: []string{"geoip"}})
	assert.Error(t, err)

	_, err = Build(config.EnrichmentConfig{Enrichers: []string{"conversation", "conversation"}})
	assert.Error(t, err)
}

func TestBuild_RulesCompileAtStartup(t *testing.T) {
	_, err := Build(config.EnrichmentConfig{
		Enrichers: []string{"rules"},
		Rules:     []config.RuleConfig{{Name: "bad", Target: "X", Expression: "headers["}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestRulesEnricher(t *testing.T) {
	p, err := Build(config.EnrichmentConfig{
		Enrichers: []string{"message_type", "rules"},
		Rules: []config.RuleConfig{
			{Name: "tenant", Target: "Tenant", Expression: `"Tenant" in headers ? headers["Tenant"] : null`},
			{Name: "large", Target: "IsOrder", Expression: `has(metadata.MessageType) && metadata.MessageType.startsWith("Orders.")`},
		},
	})
	require.NoError(t, err)

	metadata := map[string]interface{}{}
	headers := map[string]string{
		"Tenant":                          "acme",
		models.HeaderEnclosedMessageTypes: "Orders.PlaceOrder, Orders",
	}
	require.NoError(t, p.Enrich(context.Background(), headers, metadata))
	assert.Equal(t, "acme", metadata["Tenant"])
	assert.Equal(t, true, metadata["IsOrder"])

	metadata = map[string]interface{}{}
	require.NoError(t, p.Enrich(context.Background(), map[string]string{}, metadata))
	assert.NotContains(t, metadata, "Tenant")
	assert.Equal(t, false, metadata["IsOrder"])
}

func TestRulesEnricher_EvaluationErrorFailsMessage(t *testing.T) {
	p, err := Build(config.EnrichmentConfig{
		Enrichers: []string{"rules"},
		Rules:     []config.RuleConfig{{Name: "strict", Target: "T", Expression: `headers["Required"]`}},
	})
	require.NoError(t, err)

	err = p.Enrich(context.Background(), map[string]string{}, map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rules")
	assert.Contains(t, err.Error(), "strict")
}
