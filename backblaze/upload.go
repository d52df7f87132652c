// Copyright 2026
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package backblaze

import (
	"context"
	"errors"
	"os"

	"github.com/kothar/go-backblaze"
	"github.com/rs/zerolog"
)

var (
	ErrBucketNotFound = errors.New("bucket not found")
)

// Archiver copies downloaded reports into a B2 bucket
type Archiver struct {
	bucket     *backblaze.Bucket
	bucketName string
}

// NewArchiver authorizes against B2 and looks up bucketName
func NewArchiver(keyID, applicationKey, bucketName string) (*Archiver, error) {
	b2, err := backblaze.NewB2(backblaze.Credentials{
		KeyID:          keyID,
		ApplicationKey: applicationKey,
	})
	if err != nil {
		return nil, err
	}

	bucket, err := b2.Bucket(bucketName)
	if err != nil {
		return nil, err
	}

	if bucket == nil {
		return nil, ErrBucketNotFound
	}

	return &Archiver{
		bucket:     bucket,
		bucketName: bucketName,
	}, nil
}

// Archive uploads the file fn to the bucket under key
func (archiver *Archiver) Archive(ctx context.Context, fn, key string) error {
	logger := zerolog.Ctx(ctx)

	reader, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer reader.Close()

	metadata := make(map[string]string)

	file, err := archiver.bucket.UploadFile(key, metadata, reader)
	if err != nil {
		logger.Error().Err(err).Str("FileName", key).Str("BucketName", archiver.bucketName).Msg("save file to backblaze failed")
		return err
	}

	logger.Info().Str("FileName", file.Name).Int64("Size", file.ContentLength).Str("ID", file.ID).Msg("uploaded file to backblaze")
	return nil
}
