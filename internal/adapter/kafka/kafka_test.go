package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climadash/weather-pipeline/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	loc := domain.Location{Name: "Medellín", Latitude: 6.244, Longitude: -75.581, Timezone: "America/Bogota"}
	rec := domain.Record{
		Time:         time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC),
		TemperatureC: domain.Float(21.5),
		HumidityPct:  nil,
	}

	msg, err := serializeToMessage(loc, &rec, "2024-03-01T15:00:00Z")
	require.NoError(t, err)

	assert.Equal(t, "6.2440,-75.5810|2024-03-01T14:00:00Z", string(msg.Key))
	assert.Contains(t, string(msg.Value), `"temperature_c":21.5`)
	// Nulls stay explicit on the wire.
	assert.Contains(t, string(msg.Value), `"humidity_pct":null`)
	assert.Contains(t, string(msg.Value), `"location":"Medellín"`)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "location", msg.Headers[0].Key)
	assert.Equal(t, []byte("Medellín"), msg.Headers[0].Value)
	assert.Equal(t, "produced_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-03-01T15:00:00Z"), msg.Headers[1].Value)
}
