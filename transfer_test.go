package zlift

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestTransfer_Basic(t *testing.T) {
	require := require.New(t)
	ctx := CurrentContext()

	tc := NewTransfer(ctx, 100)
	require.True(tc.IsValid(ctx))
	require.True(tc.IsOnOrigin(ctx))

	v, err := tc.Get(ctx)
	require.NoError(err)
	require.Equal(100, v)

	p, err := tc.GetMut(ctx)
	require.NoError(err)
	*p = 101

	v, err = tc.Transfer(ctx)
	require.NoError(err)
	require.Equal(101, v)

	require.True(tc.IsConsumed())
	require.False(tc.IsValid(ctx))
	require.False(tc.IsOnOrigin(ctx))

	_, err = tc.Get(ctx)
	require.ErrorIs(err, ErrUseAfterMove)
	_, err = tc.GetMut(ctx)
	require.ErrorIs(err, ErrUseAfterMove)
	_, err = tc.Transfer(ctx)
	require.ErrorIs(err, ErrUseAfterMove)
}

func TestTransfer_WrongContext(t *testing.T) {
	require := require.New(t)
	origin := ContextID(1)
	other := ContextID(2)

	tc := NewTransfer(origin, "payload")
	require.False(tc.IsOnOrigin(other))
	require.False(tc.IsValid(other))

	_, err := tc.Get(other)
	require.ErrorIs(err, ErrWrongContext)
	_, err = tc.Transfer(other)
	require.ErrorIs(err, ErrWrongContext)

	// failed attempts leave the cell intact
	require.False(tc.IsConsumed())
	v, err := tc.Transfer(origin)
	require.NoError(err)
	require.Equal("payload", v)
}

func TestCurrentContext(t *testing.T) {
	require := require.New(t)
	ctx := CurrentContext()
	require.NotZero(ctx)
	require.Equal(ctx, CurrentContext())

	ch := make(chan ContextID)
	go func() {
		ch <- CurrentContext()
	}()
	require.NotEqual(ctx, <-ch)
}

func TestTransfer_AcrossGoroutines(t *testing.T) {
	require := require.New(t)

	type job struct {
		id   int
		data []byte
	}

	const workers = 100
	results := make([]int, workers)
	g := errgroup.Group{}
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			// producer goroutine owns the cell
			ctx := CurrentContext()
			tc := NewTransfer(ctx, job{id: i, data: []byte{byte(i)}})
			ch := make(chan job, 1)

			// consumer goroutine may not touch the cell
			consumerErr := make(chan error, 1)
			go func() {
				_, err := tc.Get(CurrentContext())
				consumerErr <- err
			}()
			if err := <-consumerErr; err == nil {
				return fmt.Errorf("job %d: cell is accessible from a foreign goroutine", i)
			}

			j, err := tc.Transfer(ctx)
			if err != nil {
				return err
			}
			ch <- j

			done := make(chan int)
			go func() {
				j := <-ch
				done <- j.id
			}()
			results[i] = <-done

			// handed over already
			_, err = tc.Get(ctx)
			if err == nil {
				return fmt.Errorf("job %d: cell is accessible after transfer", i)
			}
			return nil
		})
	}
	require.NoError(g.Wait())
	for i, r := range results {
		require.Equal(i, r)
	}
}
