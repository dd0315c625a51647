// Package pixel implements the color models and packed images used as LCD
// panel pixel data.
//
// The image types are compatible with Go's native [color.Color] and
// [image.Image] / [draw.Image] interfaces; their Pix slices are ready to be
// sent to a panel with DrawBitmap.
package pixel
