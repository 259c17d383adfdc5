// Package main hosts the frames2sprite CLI.
//
// The cobra command tree loads a frame upload (a directory of images, a single
// image or a storyboard PDF) into an engine.Session and then either opens the
// interactive preview, exports frames and sprite sheets, prints a frame table or
// renders the generation prompt for a catalog animation.
package main
