/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Command s3crtcli is a small GetObject/PutObject driver over the s3
// package, with a progress bar wired to OnProgress. It exists to be read as
// a usage example of the Client, not as a feature-complete transfer tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sdkcfg "github.com/aws/aws-sdk-go-v2/config"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/nabbar/go-s3crt/s3"
	"github.com/nabbar/go-s3crt/sizeunit"
)

func main() {
	var (
		op          = flag.String("op", "", "operation: get|put")
		bucket      = flag.String("bucket", "", "bucket name")
		key         = flag.String("key", "", "object key")
		path        = flag.String("path", "", "local file path (source for put, destination for get)")
		region      = flag.String("region", "", "AWS region override")
		partSize    = flag.Int64("part-size-mb", 8, "multipart part size, in MiB")
		checkpoint  = flag.String("checkpoint", "", "checkpoint file path (put only)")
		contentType = flag.String("content-type", "", "Content-Type override (put only)")
	)
	flag.Parse()

	if *op != "get" && *op != "put" {
		fmt.Fprintln(os.Stderr, "s3crtcli: -op must be \"get\" or \"put\"")
		os.Exit(2)
	}
	if *bucket == "" || *key == "" || *path == "" {
		fmt.Fprintln(os.Stderr, "s3crtcli: -bucket, -key and -path are required")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	optFns := make([]func(*sdkcfg.LoadOptions) error, 0, 1)
	if *region != "" {
		optFns = append(optFns, sdkcfg.WithRegion(*region))
	}

	cfg, err := sdkcfg.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "s3crtcli: load AWS config: %v\n", err)
		os.Exit(1)
	}

	cli := s3.NewClient(cfg, s3.ClientOptions{
		PartSize: sizeunit.Size(*partSize) * sizeunit.SizeMega,
	}, nil)

	progress := mpb.New(mpb.WithWidth(48))
	bar := progress.AddBar(100,
		mpb.PrependDecorators(decor.Name(*key+" ")),
		mpb.AppendDecorators(decor.Percentage()),
	)

	var total int64
	onProgress := func(cumulative uint64) {
		if total > 0 {
			bar.SetCurrent(int64(cumulative) * 100 / total)
		}
	}

	switch *op {
	case "get":
		err = runGet(ctx, cli, *bucket, *key, *path, onProgress, &total, bar)
	case "put":
		err = runPut(ctx, cli, *bucket, *key, *path, *contentType, *checkpoint, onProgress, &total, bar)
	}

	progress.Wait()

	if err != nil {
		fmt.Fprintf(os.Stderr, "s3crtcli: %v\n", err)
		os.Exit(1)
	}
}

func runGet(ctx context.Context, cli *s3.Client, bucket, key, path string, onProgress func(uint64), total *int64, bar *mpb.Bar) error {
	resp, err := cli.GetObject(ctx, s3.GetObjectParams{
		Bucket:         bucket,
		Key:            key,
		ResponseTarget: s3.ResponseTarget{Path: path},
		ChecksumMode:   s3.ChecksumModeEnabled,
		OnProgress:     onProgress,
	})
	if err != nil {
		return err
	}
	if !resp.Successful() {
		return fmt.Errorf("get object: status %d", resp.StatusCode)
	}

	bar.SetCurrent(100)
	return nil
}

func runPut(ctx context.Context, cli *s3.Client, bucket, key, path, contentType, checkpointPath string, onProgress func(uint64), total *int64, bar *mpb.Bar) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	*total = st.Size()

	resp, err := cli.PutObject(ctx, s3.PutObjectParams{
		Bucket:            bucket,
		Key:               key,
		Path:              path,
		ContentLength:     st.Size(),
		ContentType:       contentType,
		ChecksumAlgorithm: s3.ChecksumCRC32C,
		CheckpointPath:    checkpointPath,
		OnProgress:        onProgress,
	})
	if err != nil {
		return err
	}
	if !resp.Successful() {
		return fmt.Errorf("put object: status %d", resp.StatusCode)
	}

	bar.SetCurrent(100)
	return nil
}
