package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWebhookEvent(t *testing.T) {
	c := NewCompilerWithCache(4)
	ctx := context.Background()

	valid := map[string]interface{}{
		"eventType": "replied",
		"phone":     "+5511999998888",
		"cohort":    "1",
	}
	assert.NoError(t, c.Validate(ctx, WebhookEventSchema, valid))

	missingPhone := map[string]interface{}{"eventType": "replied"}
	assert.Error(t, c.Validate(ctx, WebhookEventSchema, missingPhone))

	emptyPhone := map[string]interface{}{"phone": ""}
	assert.Error(t, c.Validate(ctx, WebhookEventSchema, emptyPhone))

	wrongType := map[string]interface{}{"phone": 123}
	assert.Error(t, c.Validate(ctx, WebhookEventSchema, wrongType))
}

func TestPrepareCachesCompiledSchema(t *testing.T) {
	c := NewCompilerWithCache(4)
	ctx := context.Background()

	require.NoError(t, c.Prepare(ctx, WebhookEventSchema))
	require.NoError(t, c.Prepare(ctx, WebhookEventSchema))

	value := map[string]interface{}{"phone": "+5511999998888"}
	assert.NoError(t, c.Validate(ctx, WebhookEventSchema, value))
}
