package gallerd

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureAlgorithm = "AWS4-HMAC-SHA256"
	MaxExpiresSeconds  = 604800 // 7 days, the SigV4 presign ceiling
	DateTimeFormat     = "20060102T150405Z"
	DateFormat         = "20060102"
)

// SigningConfig holds the key pair and scope used to presign and verify
// the filesystem backend's blob retrieval URLs.
type SigningConfig struct {
	Region    string `mapstructure:"region"`
	Service   string `mapstructure:"service"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// Signer issues SigV4 presigned URLs for locally served blobs.
type Signer struct {
	cfg SigningConfig
}

func NewSigner(cfg SigningConfig) *Signer {
	return &Signer{cfg: cfg}
}

// Presign returns a signed URL for method on path under baseURL, valid for
// expires seconds from now. expires is clamped to [1, MaxExpiresSeconds];
// the host header of baseURL is the only signed header.
func (s *Signer) Presign(baseURL, method, path string, expires int, now time.Time) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("presign: parse base url: %w", err)
	}
	if base.Host == "" {
		return "", fmt.Errorf("presign: base url %q has no host", baseURL)
	}

	if expires < 1 {
		expires = 1
	}
	if expires > MaxExpiresSeconds {
		expires = MaxExpiresSeconds
	}

	now = now.UTC()
	dateStamp := now.Format(DateFormat)

	query := url.Values{}
	query.Set("X-Amz-Algorithm", SignatureAlgorithm)
	query.Set("X-Amz-Credential", fmt.Sprintf("%s/%s/%s/%s/aws4_request",
		s.cfg.AccessKey, dateStamp, s.cfg.Region, s.cfg.Service))
	query.Set("X-Amz-Date", now.Format(DateTimeFormat))
	query.Set("X-Amz-Expires", strconv.Itoa(expires))
	query.Set("X-Amz-SignedHeaders", "host")

	signPath := strings.TrimSuffix(base.Path, "/") + "/" + strings.TrimPrefix(path, "/")

	headers := http.Header{}
	headers.Set("Host", base.Host)

	signature := calculateSignature(
		s.cfg.SecretKey, method, signPath, query, headers,
		now, dateStamp, s.cfg.Region, s.cfg.Service, "host",
	)
	query.Set("X-Amz-Signature", signature)

	signed := *base
	signed.Path = signPath
	signed.RawQuery = query.Encode()
	return signed.String(), nil
}

// Verifier verifies SigV4 presigned URLs.
type Verifier struct {
	Region          string
	Service         string
	AccessKeyLookup func(accessKey string) (secretKey string, found bool)
}

// NewVerifier creates a verifier scoped to region and service. lookup
// resolves an access key to its secret; it returns ("", false) for unknown
// keys.
func NewVerifier(region, service string, lookup func(string) (string, bool)) *Verifier {
	return &Verifier{
		Region:          region,
		Service:         service,
		AccessKeyLookup: lookup,
	}
}

// Verify checks a presigned request: all X-Amz-* parameters present, the
// algorithm correct, the expiry within range and not passed, the credential
// scope matching, the access key known, and the signature matching. Returns
// nil when the signature is valid, an ErrUnauthorized-wrapped error
// otherwise.
func (v *Verifier) Verify(method, path string, query url.Values, headers http.Header) error {
	params, err := v.extractParams(query)
	if err != nil {
		return err
	}

	if err := v.validateParams(params); err != nil {
		return err
	}

	secretKey, found := v.AccessKeyLookup(params.accessKey)
	if !found {
		return fmt.Errorf("invalid access key: %w", ErrUnauthorized)
	}

	expected := calculateSignature(
		secretKey, method, path, query, headers,
		params.requestTime, params.dateStamp, params.region, params.service,
		params.signedHeaders,
	)

	if !hmac.Equal([]byte(expected), []byte(params.signature)) {
		return fmt.Errorf("signature mismatch: %w", ErrUnauthorized)
	}

	return nil
}

type signatureParams struct {
	algorithm     string
	accessKey     string
	dateStamp     string
	region        string
	service       string
	requestTime   time.Time
	expires       int
	signedHeaders string
	signature     string
}

func (v *Verifier) extractParams(query url.Values) (*signatureParams, error) {
	amzAlgorithm := query.Get("X-Amz-Algorithm")
	amzCredential := query.Get("X-Amz-Credential")
	amzDate := query.Get("X-Amz-Date")
	amzExpires := query.Get("X-Amz-Expires")
	amzSignedHeaders := query.Get("X-Amz-SignedHeaders")
	amzSignature := query.Get("X-Amz-Signature")

	if amzAlgorithm == "" || amzCredential == "" || amzDate == "" ||
		amzExpires == "" || amzSignedHeaders == "" || amzSignature == "" {
		return nil, fmt.Errorf("missing required signature parameters: %w", ErrUnauthorized)
	}

	requestTime, err := time.Parse(DateTimeFormat, amzDate)
	if err != nil {
		return nil, fmt.Errorf("invalid X-Amz-Date format: %w", ErrUnauthorized)
	}

	expires, err := strconv.Atoi(amzExpires)
	if err != nil || expires <= 0 || expires > MaxExpiresSeconds {
		return nil, fmt.Errorf("invalid X-Amz-Expires: must be between 1 and %d: %w", MaxExpiresSeconds, ErrUnauthorized)
	}

	credParts := strings.Split(amzCredential, "/")
	if len(credParts) != 5 {
		return nil, fmt.Errorf("invalid X-Amz-Credential format: %w", ErrUnauthorized)
	}

	if credParts[4] != "aws4_request" {
		return nil, fmt.Errorf("invalid credential terminator: expected aws4_request: %w", ErrUnauthorized)
	}

	return &signatureParams{
		algorithm:     amzAlgorithm,
		accessKey:     credParts[0],
		dateStamp:     credParts[1],
		region:        credParts[2],
		service:       credParts[3],
		requestTime:   requestTime,
		expires:       expires,
		signedHeaders: amzSignedHeaders,
		signature:     amzSignature,
	}, nil
}

func (v *Verifier) validateParams(params *signatureParams) error {
	if params.algorithm != SignatureAlgorithm {
		return fmt.Errorf("invalid algorithm: expected %s, got %s: %w", SignatureAlgorithm, params.algorithm, ErrUnauthorized)
	}

	if time.Now().After(params.requestTime.Add(time.Duration(params.expires) * time.Second)) {
		return fmt.Errorf("signature expired: %w", ErrUnauthorized)
	}

	expectedDate := params.requestTime.Format(DateFormat)
	if params.dateStamp != expectedDate {
		return fmt.Errorf("credential date mismatch: %w", ErrUnauthorized)
	}

	if params.region != v.Region {
		return fmt.Errorf("region mismatch: expected %s, got %s: %w", v.Region, params.region, ErrUnauthorized)
	}

	if params.service != v.Service {
		return fmt.Errorf("service mismatch: expected %s, got %s: %w", v.Service, params.service, ErrUnauthorized)
	}

	return nil
}

func calculateSignature(
	secretKey, method, path string,
	query url.Values,
	headers http.Header,
	requestTime time.Time,
	dateStamp, region, service, signedHeaders string,
) string {
	canonicalRequest := buildCanonicalRequest(method, path, query, headers, signedHeaders)

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, region, service)
	stringToSign := buildStringToSign(requestTime, credentialScope, canonicalRequest)

	signingKey := deriveSigningKey(secretKey, dateStamp, region, service)

	signature := hmacSHA256(signingKey, []byte(stringToSign))
	return hex.EncodeToString(signature)
}

func buildCanonicalRequest(method, path string, query url.Values, headers http.Header, signedHeaders string) string {
	canonicalQuery := buildCanonicalQueryString(query)
	canonicalHeaders := buildCanonicalHeaders(headers, signedHeaders)
	payloadHash := "UNSIGNED-PAYLOAD"

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n%s",
		method,
		path,
		canonicalQuery,
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	)
}

// buildCanonicalHeaders builds the canonical headers string from the signed
// headers list. Headers are sorted alphabetically and formatted as
// "name:value\n".
func buildCanonicalHeaders(headers http.Header, signedHeaders string) string {
	headerNames := strings.Split(signedHeaders, ";")
	sort.Strings(headerNames)

	var result strings.Builder
	for _, name := range headerNames {
		// Header names in signedHeaders are lowercase
		value := strings.TrimSpace(headers.Get(name))
		result.WriteString(name)
		result.WriteString(":")
		result.WriteString(value)
		result.WriteString("\n")
	}
	return result.String()
}

func buildCanonicalQueryString(query url.Values) string {
	params := url.Values{}
	for k, v := range query {
		if k != "X-Amz-Signature" {
			params[k] = v
		}
	}
	return params.Encode()
}

func buildStringToSign(requestTime time.Time, credentialScope, canonicalRequest string) string {
	hashedCanonicalRequest := sha256Hash(canonicalRequest)
	return fmt.Sprintf("%s\n%s\n%s\n%s",
		SignatureAlgorithm,
		requestTime.Format(DateTimeFormat),
		credentialScope,
		hashedCanonicalRequest,
	)
}

func deriveSigningKey(secretKey, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	return hmacSHA256(kService, []byte("aws4_request"))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func sha256Hash(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
