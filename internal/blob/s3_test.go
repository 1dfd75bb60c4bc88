package blob

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/inspection-wizard/internal/imageprep"
)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, b)
	return &s3.PutObjectOutput{}, nil
}

func TestStore_UploadsDataURL(t *testing.T) {
	client := &fakeS3{}
	sink := NewS3SinkWithClient(client, "claims", "inspections", nil)
	insp, photo := uuid.New(), uuid.New()

	ref, err := sink.Store(context.Background(), insp, photo, imageprep.EncodeDataURL("image/png", []byte("png-bytes")))
	require.NoError(t, err)

	key := "inspections/" + insp.String() + "/" + photo.String() + ".png"
	assert.Equal(t, "s3://claims/"+key, ref)
	require.Len(t, client.inputs, 1)
	assert.Equal(t, key, aws.ToString(client.inputs[0].Key))
	assert.Equal(t, "image/png", aws.ToString(client.inputs[0].ContentType))
	assert.Equal(t, []byte("png-bytes"), client.bodies[0])
}

func TestStore_PassesThroughStoredReferences(t *testing.T) {
	client := &fakeS3{}
	sink := NewS3SinkWithClient(client, "claims", "", nil)

	ref, err := sink.Store(context.Background(), uuid.New(), uuid.New(), "s3://claims/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "s3://claims/a.jpg", ref)
	assert.Empty(t, client.inputs)
}

func TestStore_Errors(t *testing.T) {
	sink := NewS3SinkWithClient(&fakeS3{err: errors.New("AccessDenied")}, "claims", "", nil)
	_, err := sink.Store(context.Background(), uuid.New(), uuid.New(), imageprep.EncodeDataURL(imageprep.MimeJPEG, []byte("x")))
	assert.ErrorContains(t, err, "AccessDenied")

	_, err = sink.Store(context.Background(), uuid.New(), uuid.New(), "data:image/jpeg,notbase64")
	assert.Error(t, err)
}
