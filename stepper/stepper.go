// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package stepper runs single descent steps on a dedicated goroutine so that an interactive
// caller can keep drawing while the next point layout is computed.
package stepper

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	mosaic "github.com/Caliban-17/mosaic-new"
	"github.com/charmbracelet/log"
	"github.com/golang/geo/r2"
)

var ErrClosed = errors.New("stepper: closed")

// Request asks for one step from Points. A nil Grad makes the stepper estimate the gradient.
type Request struct {
	Points []r2.Point
	Grad   []r2.Point
}

type Response struct {
	Points []r2.Point
	// Grad is the gradient the step used.
	Grad []r2.Point
	Err  error
}

type job struct {
	req  Request
	resp chan Response
}

type Stepper struct {
	params mosaic.EnergyParams
	logger *log.Logger

	jobs      chan job
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type Option func(*Stepper)

func WithLogger(logger *log.Logger) Option {
	return func(s *Stepper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New starts the stepper goroutine. Close must be called to stop it.
func New(params mosaic.EnergyParams, opts ...Option) *Stepper {
	s := &Stepper{
		params: params,
		logger: log.Default(),
		jobs:   make(chan job),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

func (s *Stepper) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case j := <-s.jobs:
			j.resp <- s.step(j.req)
		}
	}
}

// Submit hands req to the stepper goroutine and waits for the answer.
// Failures, including cancellation of ctx and a closed stepper, are reported in Response.Err.
func (s *Stepper) Submit(ctx context.Context, req Request) Response {
	resp := make(chan Response, 1)
	select {
	case <-s.done:
		return Response{Err: ErrClosed}
	case <-ctx.Done():
		return Response{Err: ctx.Err()}
	case s.jobs <- job{req: req, resp: resp}:
	}
	select {
	case r := <-resp:
		return r
	case <-ctx.Done():
		return Response{Err: ctx.Err()}
	}
}

// Close stops the goroutine after the step in flight, if any, finishes.
func (s *Stepper) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return nil
}

func (s *Stepper) step(req Request) Response {
	if err := s.check(req); err != nil {
		s.logger.Warn("rejected step request", "err", err)
		return Response{Err: err}
	}

	// Non-finite coordinates become 0 before the update.
	points := make([]r2.Point, len(req.Points))
	for i, p := range req.Points {
		points[i] = r2.Point{X: finiteOrZero(p.X), Y: finiteOrZero(p.Y)}
	}

	grad := req.Grad
	if grad == nil {
		var err error
		grad, err = mosaic.CalculateGradient(points, &s.params, mosaic.WithLogger(s.logger))
		if err != nil {
			return Response{Err: err}
		}
	}

	next, err := mosaic.Step(points, grad, &s.params)
	if err != nil {
		return Response{Err: err}
	}
	s.logger.Debug("step", "points", len(next), "gradNorm", mosaic.GradientNorm(grad))
	return Response{Points: next, Grad: grad}
}

func (s *Stepper) check(req Request) error {
	if len(req.Points) == 0 {
		return errors.New("stepper: no points")
	}
	if req.Grad != nil && len(req.Grad) != len(req.Points) {
		return fmt.Errorf("stepper: %d points but %d gradient entries", len(req.Points), len(req.Grad))
	}
	if !s.params.Domain().Valid() {
		return mosaic.ErrInvalidDomain
	}
	if lr := s.params.LearningRate; math.IsNaN(lr) || math.IsInf(lr, 0) {
		return fmt.Errorf("stepper: learning rate must be finite, got %v", lr)
	}
	return nil
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
