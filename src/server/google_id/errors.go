package google_id

import "github.com/cockroachdb/errors/domains"

var (
	NotValidatedMark    = domains.New("not_validated")
	MalformedClaimsMark = domains.New("malformed_claims")
)
