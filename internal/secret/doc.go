// Package secret resolves API credentials by name from pluggable sources.
//
// Every source implements Provider. The sources are a closed set selected by
// Type through New:
//   - dotenv: process environment, seeded from a key=value file (EnvFile)
//   - colab: the notebook host's secret store, only inside Google Colab (Colab)
//   - google_cloud: Google Cloud Secret Manager (GoogleCloud)
//   - azure: reserved, not implemented
//
// Providers never cache values and never log them.
package secret
