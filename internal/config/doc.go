// Package config provides the batch configuration for fooocus-batch.
//
// This package handles:
//   - Default configuration values
//   - Restoring a saved configuration from JSON or YAML
//   - Saving the configuration as batch_config.json
//   - Validating strengths and generation parameters
//
// # Default Settings
//
//	cfg := config.DefaultBatchConfig()
//	// prompts.txt, face_model.jpg, target_images/, batch_outputs/
//	// 20 steps, cfg 4.0, dpmpp_2m_sde_gpu / karras, random seed
//
// # Loading from File
//
//	cfg, err := config.Load("batch_outputs/batch_config.json")
//	// Returns defaults if the file doesn't exist.
//	// Files ending in .yaml or .yml are decoded as YAML.
//
// # Saving
//
//	err := cfg.Save(cfg.ConfigPath())
//
// The JSON is written with a stable key order, 4-space indentation and
// non-ASCII text kept literal.
package config
