/*
Package config provides runtime settings for experiment runs: a global and
per-experiment kill switch, a percentage rollout, and context maps carried
onto published results.

Settings load from a YAML file, environment variables, or both (Load,
LoadEnv, LoadFile). A Store holds the live settings behind an atomic
pointer, a Watcher reloads the file into the store whenever it changes on
disk, and NewHandler builds an experiment.Handler that consults the live
settings on every run, so experiments can be flipped on and off without a
restart.
*/
package config
