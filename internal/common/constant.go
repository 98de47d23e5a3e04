package common

// AuthorizationHeaderName is the request header carrying bucket credentials.
const AuthorizationHeaderName = "Authorization"

// BasicScheme is the only accepted authorization scheme label. Matching is
// exact and case-sensitive.
const BasicScheme = "Basic"

// DefaultBucketName is the name given to every bucket created on key issuance.
const DefaultBucketName = "bucket"
