package gemini

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	relaymodel "github.com/fuchsia74/gemini-pool/relay/model"
)

// configAliasKeys are generation-config fields the native surface also
// accepts at the top level of the request body. They merge over both
// body.config and body.generationConfig.
var configAliasKeys = []string{
	"temperature",
	"maxOutputTokens",
	"topP",
	"topK",
	"candidateCount",
	"stopSequences",
	"responseMimeType",
	"responseSchema",
	"responseModalities",
}

// NormalizeNativeBody rewrites a native request body into the canonical
// provider shape for the given action. Generation bodies get a single merged
// generationConfig and the forced safety policy; the Imagen image action is
// rewritten into a predict body. Non-generation actions pass through
// untouched.
func NormalizeNativeBody(body []byte, action string) ([]byte, *relaymodel.ErrorWithStatusCode) {
	switch action {
	case "generateContent", "streamGenerateContent":
		return normalizeGenerationBody(body)
	case "generateImageWithGemini":
		out, errWithCode := normalizeGenerationBody(body)
		if errWithCode != nil {
			return nil, errWithCode
		}
		if !responseModalitiesContainImage(out) {
			return nil, ErrorWrapper(
				errors.New("generateImageWithGemini requires responseModalities containing IMAGE"),
				"missing_image_modality", http.StatusBadRequest)
		}
		return out, nil
	case "generateImageWithImagen":
		return normalizeImagenBody(body)
	default:
		return body, nil
	}
}

// normalizeGenerationBody merges body.config, body.generationConfig, and the
// top-level alias fields, in that precedence order, into one generationConfig
// object, then overwrites safetySettings with the all-categories-OFF policy.
func normalizeGenerationBody(body []byte) ([]byte, *relaymodel.ErrorWithStatusCode) {
	if !gjson.ValidBytes(body) {
		return nil, ErrorWrapper(errors.New("request body is not valid JSON"),
			"invalid_json", http.StatusBadRequest)
	}

	merged := []byte(`{}`)
	var mergeErr error
	for _, src := range []gjson.Result{gjson.GetBytes(body, "config"), gjson.GetBytes(body, "generationConfig")} {
		if !src.IsObject() {
			continue
		}
		src.ForEach(func(key, value gjson.Result) bool {
			merged, mergeErr = sjson.SetRawBytes(merged, key.String(), []byte(value.Raw))
			return mergeErr == nil
		})
		if mergeErr != nil {
			return nil, ErrorWrapper(errors.Wrap(mergeErr, "merge generation config"),
				"config_merge_failed", http.StatusBadRequest)
		}
	}
	for _, key := range configAliasKeys {
		if value := gjson.GetBytes(body, key); value.Exists() {
			merged, mergeErr = sjson.SetRawBytes(merged, key, []byte(value.Raw))
			if mergeErr != nil {
				return nil, ErrorWrapper(errors.Wrap(mergeErr, "merge generation config"),
					"config_merge_failed", http.StatusBadRequest)
			}
		}
	}

	// systemInstruction is a top-level field on the provider surface; collect
	// it from all three sources with the same precedence
	systemInstruction := gjson.GetBytes(merged, "systemInstruction")
	if top := gjson.GetBytes(body, "systemInstruction"); top.Exists() {
		systemInstruction = top
	}
	merged, _ = sjson.DeleteBytes(merged, "systemInstruction")

	// thinkingConfig without an explicit thinkingBudget is dropped rather
	// than defaulted
	if gjson.GetBytes(merged, "thinkingConfig").Exists() &&
		!gjson.GetBytes(merged, "thinkingConfig.thinkingBudget").Exists() {
		merged, _ = sjson.DeleteBytes(merged, "thinkingConfig")
	}

	out := body
	out, _ = sjson.DeleteBytes(out, "config")
	for _, key := range configAliasKeys {
		out, _ = sjson.DeleteBytes(out, key)
	}
	var err error
	out, err = sjson.SetRawBytes(out, "generationConfig", merged)
	if err != nil {
		return nil, ErrorWrapper(errors.Wrap(err, "set generation config"),
			"config_merge_failed", http.StatusBadRequest)
	}
	out, err = sjson.SetRawBytes(out, "safetySettings", safetySettingsOffJSON())
	if err != nil {
		return nil, ErrorWrapper(errors.Wrap(err, "set safety settings"),
			"config_merge_failed", http.StatusBadRequest)
	}
	if systemInstruction.Exists() {
		out, err = sjson.SetRawBytes(out, "systemInstruction", []byte(systemInstruction.Raw))
		if err != nil {
			return nil, ErrorWrapper(errors.Wrap(err, "set system instruction"),
				"config_merge_failed", http.StatusBadRequest)
		}
	}
	return out, nil
}

// normalizeImagenBody rewrites {prompt, config:{numberOfImages?, aspectRatio?,
// personGeneration?}} into the provider predict body. Unknown fields are
// dropped.
func normalizeImagenBody(body []byte) ([]byte, *relaymodel.ErrorWithStatusCode) {
	if !gjson.ValidBytes(body) {
		return nil, ErrorWrapper(errors.New("request body is not valid JSON"),
			"invalid_json", http.StatusBadRequest)
	}
	prompt := gjson.GetBytes(body, "prompt")
	if !prompt.Exists() || prompt.String() == "" {
		return nil, ErrorWrapper(errors.New("prompt is required"),
			"missing_prompt", http.StatusBadRequest)
	}

	request := ImagenRequest{
		Instances: []ImagenInstance{{Prompt: prompt.String()}},
		Parameters: ImagenParameters{
			SampleCount:      int(gjson.GetBytes(body, "config.numberOfImages").Int()),
			AspectRatio:      gjson.GetBytes(body, "config.aspectRatio").String(),
			PersonGeneration: gjson.GetBytes(body, "config.personGeneration").String(),
		},
	}
	out, err := json.Marshal(request)
	if err != nil {
		return nil, ErrorWrapper(errors.Wrap(err, "marshal predict body"),
			"marshal_failed", http.StatusInternalServerError)
	}
	return out, nil
}

func responseModalitiesContainImage(body []byte) bool {
	for _, modality := range gjson.GetBytes(body, "generationConfig.responseModalities").Array() {
		if strings.EqualFold(modality.String(), "IMAGE") {
			return true
		}
	}
	return false
}

// safetySettingsOffJSON renders the forced safety policy once per call; the
// payload is small enough that caching is not worth it.
func safetySettingsOffJSON() []byte {
	raw, err := json.Marshal(safetySettingsOff())
	if err != nil {
		// the policy is a fixed literal; marshal cannot fail
		panic(err)
	}
	return raw
}
