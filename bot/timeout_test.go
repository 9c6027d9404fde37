package bot

import (
	"context"
	"testing"
	"time"

	"github.com/rustyeddy/execbot/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stallingGateway blocks every tick request until its context ends.
type stallingGateway struct {
	*fakeGateway
}

func (g stallingGateway) Tick(ctx context.Context, symbol string) (market.Tick, error) {
	<-ctx.Done()
	return market.Tick{}, ctx.Err()
}

func TestTimeoutGatewayBoundsCalls(t *testing.T) {
	t.Parallel()

	gw := withTimeout(stallingGateway{newFakeGateway()}, 20*time.Millisecond)

	start := time.Now()
	_, err := gw.Tick(context.Background(), "XAUUSD")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)

	equity, err := gw.AccountEquity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10_000.0, equity)
}

func TestWithTimeoutDisabled(t *testing.T) {
	t.Parallel()

	fake := newFakeGateway()
	assert.Same(t, fake, withTimeout(fake, 0))
}
