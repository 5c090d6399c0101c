// Package feedback decides which key-click sound and haptic response a
// keyboard key press should produce.
//
// The Policy caches the device ringer state and combines it with a
// Settings snapshot and the pressed KeyCode to produce a Decision. The
// Performer applies a Decision to an AudioSink and a HapticSink.
package feedback
