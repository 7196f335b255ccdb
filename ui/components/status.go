package components

import (
	"github.com/Rorical/RoriChat/ui/styles"
)

// RenderStatus shows the spinner line while busy, followed by the status text
// when there is one.
func RenderStatus(status string, indicator string, width int) string {
	statusStyle := styles.StatusStyle(width)

	content := status
	if indicator != "" {
		content = indicator
		if status != "" {
			content += "  " + status
		}
	}
	return statusStyle.Render(content)
}
