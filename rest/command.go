package rest

import "net/http"

// Kind identifies the operation a command performs against the store.
// The set is closed: every kind maps to exactly one REST path shape.
type Kind int

const (
	// KindUnknown is the zero value. Commands of this kind resolve to an
	// empty path and are passed through without error.
	KindUnknown Kind = iota

	KindPing
	KindListBuckets
	KindListKeys
	KindFetchBucketProps
	KindStoreBucketProps
	KindResetBucketProps
	KindFetchObject
	KindStoreObject
	KindDeleteObject
	KindFetchDataType
	KindStoreDataType
)

func (k Kind) String() string {
	switch k {
	case KindPing:
		return "ping"
	case KindListBuckets:
		return "list-buckets"
	case KindListKeys:
		return "list-keys"
	case KindFetchBucketProps:
		return "fetch-bucket-props"
	case KindStoreBucketProps:
		return "store-bucket-props"
	case KindResetBucketProps:
		return "reset-bucket-props"
	case KindFetchObject:
		return "fetch-object"
	case KindStoreObject:
		return "store-object"
	case KindDeleteObject:
		return "delete-object"
	case KindFetchDataType:
		return "fetch-data-type"
	case KindStoreDataType:
		return "store-data-type"
	default:
		return "unknown"
	}
}

// Command describes one operation against the store. It is a plain data
// container: translation to an HTTP request happens in BuildRequest.
type Command struct {
	Kind Kind

	// Method is the HTTP method: GET, POST, PUT, DELETE or HEAD.
	// Anything else (including empty) is treated as GET.
	Method string

	// Params are encoded into the query string, or into the request body
	// as form data when the method is POST or PUT and no Body is set.
	Params map[string]string

	// BucketType is the optional bucket type (namespace). When set, the
	// path gains a leading /types/{type} segment.
	BucketType string

	// Bucket and Key identify the object for object-level commands.
	Bucket string
	Key    string

	// DataTypeKind is the CRDT kind for data-type commands: "counter",
	// "set" or "map". It is pluralized in the path.
	DataTypeKind string

	// DataTypeKey is the key of the data type instance.
	DataTypeKey string

	// Body is an optional raw request payload (object content, CRDT
	// operation document). When set, Params always go to the query
	// string regardless of method.
	Body []byte

	// ContentType describes Body when present.
	ContentType string
}

// SetParam sets a single parameter, allocating the map on first use.
func (c *Command) SetParam(name, value string) {
	if c.Params == nil {
		c.Params = make(map[string]string)
	}
	c.Params[name] = value
}

// NewPingCommand creates a command for the server liveness check.
func NewPingCommand() *Command {
	return &Command{Kind: KindPing, Method: http.MethodGet}
}

// NewListBucketsCommand creates a command listing all buckets of a type.
func NewListBucketsCommand(bucketType string) *Command {
	return &Command{
		Kind:       KindListBuckets,
		Method:     http.MethodGet,
		BucketType: bucketType,
		Params:     map[string]string{"buckets": "true"},
	}
}

// NewListKeysCommand creates a command listing all keys in a bucket.
func NewListKeysCommand(bucketType, bucket string) *Command {
	return &Command{
		Kind:       KindListKeys,
		Method:     http.MethodGet,
		BucketType: bucketType,
		Bucket:     bucket,
		Params:     map[string]string{"keys": "true"},
	}
}

// NewFetchBucketPropsCommand creates a command reading bucket properties.
func NewFetchBucketPropsCommand(bucketType, bucket string) *Command {
	return &Command{
		Kind:       KindFetchBucketProps,
		Method:     http.MethodGet,
		BucketType: bucketType,
		Bucket:     bucket,
	}
}

// NewStoreBucketPropsCommand creates a command writing bucket properties.
// The props document is sent verbatim as the request body.
func NewStoreBucketPropsCommand(bucketType, bucket string, props []byte) *Command {
	return &Command{
		Kind:        KindStoreBucketProps,
		Method:      http.MethodPut,
		BucketType:  bucketType,
		Bucket:      bucket,
		Body:        props,
		ContentType: "application/json",
	}
}

// NewResetBucketPropsCommand creates a command restoring default bucket
// properties.
func NewResetBucketPropsCommand(bucketType, bucket string) *Command {
	return &Command{
		Kind:       KindResetBucketProps,
		Method:     http.MethodDelete,
		BucketType: bucketType,
		Bucket:     bucket,
	}
}

// NewFetchObjectCommand creates a command reading one object.
func NewFetchObjectCommand(bucketType, bucket, key string) *Command {
	return &Command{
		Kind:       KindFetchObject,
		Method:     http.MethodGet,
		BucketType: bucketType,
		Bucket:     bucket,
		Key:        key,
	}
}

// NewStoreObjectCommand creates a command writing one object.
func NewStoreObjectCommand(bucketType, bucket, key string, value []byte, contentType string) *Command {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Command{
		Kind:        KindStoreObject,
		Method:      http.MethodPut,
		BucketType:  bucketType,
		Bucket:      bucket,
		Key:         key,
		Body:        value,
		ContentType: contentType,
	}
}

// NewDeleteObjectCommand creates a command removing one object.
func NewDeleteObjectCommand(bucketType, bucket, key string) *Command {
	return &Command{
		Kind:       KindDeleteObject,
		Method:     http.MethodDelete,
		BucketType: bucketType,
		Bucket:     bucket,
		Key:        key,
	}
}

// NewFetchDataTypeCommand creates a command reading a CRDT instance.
func NewFetchDataTypeCommand(bucketType, bucket, dataTypeKind, key string) *Command {
	return &Command{
		Kind:         KindFetchDataType,
		Method:       http.MethodGet,
		BucketType:   bucketType,
		Bucket:       bucket,
		DataTypeKind: dataTypeKind,
		DataTypeKey:  key,
	}
}

// NewStoreDataTypeCommand creates a command applying an operation document
// to a CRDT instance.
func NewStoreDataTypeCommand(bucketType, bucket, dataTypeKind, key string, op []byte) *Command {
	return &Command{
		Kind:         KindStoreDataType,
		Method:       http.MethodPost,
		BucketType:   bucketType,
		Bucket:       bucket,
		DataTypeKind: dataTypeKind,
		DataTypeKey:  key,
		Body:         op,
		ContentType:  "application/json",
	}
}
