package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/vasurface"
	"github.com/xaionaro-go/vasurface/backend"
	"github.com/xaionaro-go/vasurface/backend/fake"
	"github.com/xaionaro-go/vasurface/frame"
	"github.com/xaionaro-go/vasurface/types"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [options]\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	resolution := types.Resolution{Width: 1920, Height: 1080}
	pflag.Var(&resolution, "resolution", "the coded resolution of the simulated stream")
	profile := types.ProfileH264High
	pflag.Var(&profile, "profile", "the decoder profile of the simulated stream")
	deviceHint := pflag.String("device", "", "the device hint passed to the platform")
	frames := pflag.Int("frames", 300, "the amount of pictures to decode")
	threads := pflag.Int("threads", 4, "the amount of consumer goroutines (and decoder threads)")
	frameParallel := pflag.Bool("frame-parallel", true, "add a surface per decoder thread")
	reconfigureEvery := pflag.Int("reconfigure-every", 0, "renegotiate the session every N pictures (0 means never)")
	maxSurfaces := pflag.Int("max-surfaces", 0, "limit the amount of surfaces the simulated hardware can allocate")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	pflag.Parse()
	if len(pflag.Args()) != 0 {
		pflag.Usage()
		os.Exit(1)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	if *netPprofAddr != "" {
		observability.Go(ctx, func() { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	frame.RedirectLogs(l)

	hw := fake.NewHardware()
	hw.MaxSurfaces = *maxSurfaces
	cfg := vasurface.Config{
		Platforms:        []backend.Platform{fake.NewPlatform(types.PlatformKindSimulated)},
		BackendFactory:   hw.NewBackend,
		FormatPriority:   vasurface.DefaultFormatPriority(),
		BaseSurfaceCount: vasurface.DefaultBaseSurfaceCount,
	}

	l.Debugf("opening the display '%s'...", *deviceHint)
	d, err := vasurface.OpenDisplay(ctx, *deviceHint, cfg)
	if err != nil {
		l.Fatal(err)
	}

	params := vasurface.StreamParams{
		Profile:       profile,
		CodedWidth:    resolution.Width,
		CodedHeight:   resolution.Height,
		ThreadCount:   *threads,
		FrameParallel: *frameParallel,
	}
	if _, err := d.NegotiateConfig(ctx, params); err != nil {
		l.Fatal(err)
	}

	decoded := make(chan *vasurface.SurfaceLease, *threads)
	var wg sync.WaitGroup
	for range *threads {
		wg.Add(1)
		observability.Go(ctx, func() {
			defer wg.Done()
			for lease := range decoded {
				if err := consume(ctx, d, lease); err != nil {
					l.Errorf("unable to consume %s: %v", lease, err)
				}
			}
		})
	}

	startTS := time.Now()
	for i := 0; i < *frames; i++ {
		if *reconfigureEvery > 0 && i > 0 && i%*reconfigureEvery == 0 {
			params.CodedWidth += 16
			l.Infof("renegotiating the session: %s", params)
			if _, err := d.NegotiateConfig(ctx, params); err != nil {
				l.Fatal(err)
			}
		}

		lease, err := acquire(ctx, d)
		if err != nil {
			l.Fatal(err)
		}
		if err := hw.Decode(ctx, lease.Surface(), byte(i)); err != nil {
			l.Fatal(err)
		}
		decoded <- lease
	}
	close(decoded)
	wg.Wait()
	elapsed := time.Since(startTS)

	if err := d.Close(ctx); err != nil {
		l.Error(err)
	}

	stats := d.Stats()
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		l.Fatal(err)
	}
	fmt.Printf("%s\n", statsJSON)
	fmt.Printf("%d pictures in %v: %s\n", *frames, elapsed, stats)
}

// acquire waits for a free surface: every picture in flight holds one.
func acquire(
	ctx context.Context,
	d *vasurface.DisplayContext,
) (*vasurface.SurfaceLease, error) {
	for {
		lease, err := d.AcquireSurface(ctx)
		if !errors.As(err, &vasurface.ErrNoFreeSurfaces{}) {
			return lease, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func consume(
	ctx context.Context,
	d *vasurface.DisplayContext,
	lease *vasurface.SurfaceLease,
) (_err error) {
	defer func() {
		if err := lease.Release(ctx); err != nil && _err == nil {
			_err = err
		}
	}()

	params := lease.Pool().Params()
	buf, err := d.RetrieveHostBuffer(ctx, lease, params.CodedWidth, params.CodedHeight, nil)
	if err != nil {
		return fmt.Errorf("unable to read the surface back: %w", err)
	}
	defer buf.Release(ctx)

	f, err := frame.FromHostBuffer(ctx, buf)
	if err != nil {
		return fmt.Errorf("unable to convert %s: %w", buf, err)
	}
	frame.Pool.Put(f)
	return nil
}
