package rest

// ResolvePath maps a command to its REST path. The mapping is a pure
// function of the command's kind and identifying fields.
//
// Commands of an unknown kind resolve to the empty string. That is a
// deliberate fallback, not an error: callers compose the URL with
// whatever path they are given.
func ResolvePath(c *Command) string {
	typeSeg := ""
	if c.BucketType != "" {
		typeSeg = "/types/" + c.BucketType
	}

	switch c.Kind {
	case KindPing:
		return "/ping"
	case KindListBuckets:
		return typeSeg + "/buckets"
	case KindListKeys:
		return typeSeg + "/buckets/" + c.Bucket + "/keys"
	case KindFetchBucketProps, KindStoreBucketProps, KindResetBucketProps:
		return typeSeg + "/buckets/" + c.Bucket + "/props"
	case KindFetchObject, KindStoreObject, KindDeleteObject:
		return typeSeg + "/buckets/" + c.Bucket + "/keys/" + c.Key
	case KindFetchDataType, KindStoreDataType:
		return typeSeg + "/buckets/" + c.Bucket + "/" + c.DataTypeKind + "s/" + c.DataTypeKey
	default:
		return ""
	}
}
