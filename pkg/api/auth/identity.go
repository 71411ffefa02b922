package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"messageboard/pkg/api/router"
	"messageboard/pkg/api/utils"
	"messageboard/pkg/models"
	"messageboard/pkg/state/logger"

	"github.com/valyala/fasthttp"
)

const identityKey = "identity"

// creates an HMAC signature for a canonical identity
func CreateHMACSignature(id models.Identity, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(id.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// verifies an identity against its HMAC signature using the given signing keys
func VerifyHMACSignature(id models.Identity, signature string, keys []string) bool {
	for _, k := range keys {
		expected := CreateHMACSignature(id, k)
		if hmac.Equal([]byte(expected), []byte(signature)) {
			return true
		}
	}
	return false
}

// resolveIdentity parses X-Board-Identity and, when signing keys are set,
// checks X-Board-Signature. It writes the error response itself and returns
// false on failure. A request without the header passes with no identity.
func resolveIdentity(ctx *fasthttp.RequestCtx, signingKeys []string) bool {
	raw := utils.GetIdentityHeader(ctx)
	if raw == "" {
		return true
	}
	id, err := models.ParseIdentity(raw)
	if err != nil {
		logger.Warn("invalid_identity", "remote", ctx.RemoteAddr().String(), "path", utils.GetPath(ctx))
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid identity")
		return false
	}
	if len(signingKeys) > 0 {
		sig := utils.GetSignature(ctx)
		if sig == "" {
			logger.Warn("missing_signature_headers", "path", utils.GetPath(ctx), "remote", ctx.RemoteAddr().String())
			router.WriteJSONError(ctx, fasthttp.StatusUnauthorized, "missing signature")
			return false
		}
		if !VerifyHMACSignature(id, sig, signingKeys) {
			logger.Warn("invalid_signature", "identity", id, "remote", ctx.RemoteAddr().String(), "path", utils.GetPath(ctx))
			router.WriteJSONError(ctx, fasthttp.StatusUnauthorized, "invalid signature")
			return false
		}
		logger.Debug("signature_verified", "identity", id, "path", utils.GetPath(ctx))
	}
	ctx.SetUserValue(identityKey, id)
	return true
}

// IdentityFromCtx returns the caller identity established by the gateway.
func IdentityFromCtx(ctx *fasthttp.RequestCtx) (models.Identity, bool) {
	id, ok := ctx.UserValue(identityKey).(models.Identity)
	return id, ok && id != ""
}

// RequireIdentity rejects requests that carry no caller identity.
func RequireIdentity(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := IdentityFromCtx(ctx); !ok {
			router.WriteJSONError(ctx, fasthttp.StatusUnauthorized, "identity required")
			return
		}
		next(ctx)
	}
}
