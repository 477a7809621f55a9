// Package cqtscope implements an online Constant-Q Transform analysis
// engine for streaming mono audio.
//
// The pipeline has five components, wired together by a Driver:
//
//   - Ring: a generic, fixed-capacity overwrite-on-full ring buffer
//     (ring.go).
//   - Accumulator: consumes arbitrarily chunked samples into fixed-
//     size blocks on a Ring of blocks (accumulator.go).
//   - KernelBank: precomputed, Hamming-windowed complex-exponential
//     CQT kernels, one per frequency bin (kernel.go).
//   - Executor: dispatches the (bin, frame) magnitude grid over a
//     worker pool, tiled 8x8 (transform.go, dispatch.go).
//   - TileRing: paints magnitude columns into a ring of RGBA8
//     spectrogram tiles for a renderer to read (tilering.go).
//
// A single Driver owns one of each and exposes PushSamples as the
// only entry point a producer needs; see driver.go.
package cqtscope
