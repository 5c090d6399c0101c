// Package audio plays key-click sounds.
// It uses the beep library to play WAV, OGG, and MP3 files per sound
// variant, and synthesizes a short click for variants without a file.
package audio
