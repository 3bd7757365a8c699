package scripts

import (
	"context"
	"os"
	"path/filepath"
)

// AudioFileName is the name yt-dlp writes the extracted audio to.
const AudioFileName = "audio.mp3"

type Downloader struct {
	runner Runner
	binary string
}

func NewDownloader(runner Runner, binary string) *Downloader {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &Downloader{runner: runner, binary: binary}
}

// DownloadAudio extracts the lowest quality audio track of url as mp3 into
// dir and returns the file path.
func (d *Downloader) DownloadAudio(ctx context.Context, url, dir string) (string, error) {
	const op = "Downloader.DownloadAudio"
	audioPath := filepath.Join(dir, AudioFileName)

	output, err := d.runner.Run(ctx, d.binary,
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "9",
		"-f", "worstaudio",
		"-o", audioPath,
		url,
	)
	if err != nil {
		return "", newScriptError(op, err, "yt-dlp failed", output)
	}

	if _, err := os.Stat(audioPath); err != nil {
		return "", newScriptError(op, err, "yt-dlp produced no audio file", output)
	}
	return audioPath, nil
}
