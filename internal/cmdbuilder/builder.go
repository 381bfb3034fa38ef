// Package cmdbuilder renders the shell commands the recording engine hands
// to the Process Supervisor. Grounded on
// original_source/web/recorder/signals/handlers.go's generate_record_command
// and generate_resize_command, reimplemented as plain string builders since
// this repo has no ffmpeg wrapper library dependency in its pack.
package cmdbuilder

import (
	"fmt"
	"strings"
	"time"

	"github.com/kovanka/streamvault/internal/model"
)

// FFmpegBinary is the executable name used unless overridden by config.
const FFmpegBinary = "ffmpeg"

// FormatDuration renders d as HH:MM:SS, matching the original's
// str(schedule.time) and ffmpeg's own -t argument format.
func FormatDuration(d time.Duration) string {
	total := int(d.Seconds())
	h, m, s := total/3600, (total%3600)/60, total%60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Record builds: ffmpeg -i 'INPUT' -y -loglevel error -c copy
// -bsf:a aac_adtstoasc -t DURATION 'OUTPUT'
//
// duration is formatted HH:MM:SS, matching the original's str(schedule.time).
func Record(binary, input, output, duration string) string {
	if binary == "" {
		binary = FFmpegBinary
	}
	return fmt.Sprintf(
		"%s -i %s -y -loglevel error -c copy -bsf:a aac_adtstoasc -t %s %s",
		binary, quote(input), duration, quote(output),
	)
}

// Resize builds: ffmpeg -i 'INPUT' -y -vf scale=WIDTH:HEIGHT:force_original_aspect_ratio=FOAR 'OUTPUT'
func Resize(binary, input, output string, spec model.ResizeSpec) string {
	if binary == "" {
		binary = FFmpegBinary
	}
	scale := fmt.Sprintf("scale=%d:%d", spec.Width, spec.Height)
	if spec.FOAR != "" {
		scale += ":force_original_aspect_ratio=" + spec.FOAR
	}
	return fmt.Sprintf(
		"%s -i %s -y -vf %s %s",
		binary, quote(input), scale, quote(output),
	)
}

// quote wraps a path in single quotes, escaping any embedded single quote the
// POSIX-shell way ('\'' ), since Supervisor.Spawn runs the command via
// "sh -c".
func quote(path string) string {
	escaped := strings.ReplaceAll(path, "'", `'\''`)
	return "'" + escaped + "'"
}
