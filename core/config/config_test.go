package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v2"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	assert.NotNil(t, defaultConfig())
}

func TestDefaultConfigValidates(t *testing.T) {
	assert.Nil(t, defaultConfig().Validate())
}

func TestValidateCatchesBadValues(t *testing.T) {
	cases := map[string]func(*Configuration){
		"zero learning rate":   func(c *Configuration) { c.Finetune.LearningRate = 0 },
		"negative gpus":        func(c *Configuration) { c.Finetune.GPUs = -1 },
		"zero batch size":      func(c *Configuration) { c.Finetune.TrainBatchSize = 0 },
		"bad patience":         func(c *Configuration) { c.Finetune.Patience = -2 },
		"bad n_obs":            func(c *Configuration) { c.Eval.NumObs = -2 },
		"missing model":        func(c *Configuration) { c.Model = "" },
		"missing interpreter":  func(c *Configuration) { c.Python = "" },
		"missing scores name":  func(c *Configuration) { c.Eval.ScoresName = "" },
		"zero check interval":  func(c *Configuration) { c.Finetune.ValCheckInterval = 0 },
		"zero source length":   func(c *Configuration) { c.Finetune.MaxSourceLength = 0 },
	}

	for tn, mutate := range cases {
		t.Run(tn, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
