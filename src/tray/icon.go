package tray

import (
	_ "embed"
)

// Embedded icon data. ICO renders in the Windows notification area; the SVG
// is the source it was exported from.
//
//go:embed icon.ico
var iconICO []byte

// SVGContent is the vector source for the tray icon.
const SVGContent = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <!-- Display outline -->
  <rect x="1.5" y="2.5" width="13" height="9" rx="1" fill="none" stroke="#0078d4" stroke-width="1.5"/>
  <!-- Stand -->
  <line x1="6" y1="13.5" x2="10" y2="13.5" stroke="#0078d4" stroke-width="1.5" stroke-linecap="round"/>
  <line x1="8" y1="11.5" x2="8" y2="13.5" stroke="#0078d4" stroke-width="1.5"/>
  <!-- Record dot -->
  <circle cx="8" cy="7" r="2.5" fill="#d43b3b"/>
</svg>`

func getIcon() []byte {
	return iconICO
}
