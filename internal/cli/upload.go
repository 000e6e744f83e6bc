// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// upload.go - Document and image upload command.
//
// Command: upload
// Aliases: index
//
// Examples:
//   ragchat upload report.pdf --embed ollama-mxbai-embed-large
//   ragchat upload diagram.png
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jeranaias/ragchat/internal/app"
	"github.com/jeranaias/ragchat/internal/notify"
)

// HandleUpload uploads the file named by the first argument.
func HandleUpload(ctx context.Context, a *app.App, args Args, s Streams) error {
	p := NewArgParser(args.Raw, "json")
	path := p.Positional(0)
	if path == "" {
		return &UsageError{Command: "upload", Reason: "missing file"}
	}
	if m := p.Flag("embed", "e"); m != "" {
		a.Params.SetEmbedModel(m)
	}

	res, err := a.Uploader.UploadFile(ctx, path)
	if args.JSON || p.BoolFlag("json") {
		return OutputJSON(s.Out, "upload", func() (interface{}, error) {
			if err != nil {
				return nil, err
			}
			return UploadData{FileName: res.FileName, Kind: res.Kind.String(), Response: string(res.Response)}, nil
		})
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(s.Out, RenderNotice(notify.Success(notify.UploadSuccessMessage)))
	if info, statErr := os.Stat(path); statErr == nil {
		fmt.Fprintf(s.Out, "%s%s (%s, %s)\n", RenderLabel("File"), res.FileName, res.Kind, formatBytes(info.Size()))
	}
	return nil
}
