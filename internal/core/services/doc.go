// Package services implements the driving port interfaces.
// Services contain the core pipeline logic and orchestrate
// calls to driven ports (adapters): chunking, embedding, storage,
// retrieval, prompting and generation.
package services
