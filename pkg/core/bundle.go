package core

import "errors"

// BuildBundles derives one call per part from the original arguments,
// substituting the part into the bound slot. Without a binding, or without
// parts, the result is a single copy of the original call.
func BuildBundles(args Args, binding *Binding, parts []any) ([]Args, error) {
	if binding == nil || len(parts) == 0 {
		return []Args{args.Clone()}, nil
	}

	s, err := args.locate(binding)
	if err != nil {
		return nil, &ConfigurationError{Reason: err.Error()}
	}

	bundles := make([]Args, len(parts))
	for i, part := range parts {
		bundles[i] = args.replace(s, part)
	}
	return bundles, nil
}

// Plan resolves the divisible argument of args, partitions it and builds the
// bundles together with the number of workers needed to run them.
func Plan(task TaskConfig, args Args) ([]Args, int, error) {
	if task.Partition == Undivided || task.MappedArg == nil {
		return []Args{args.Clone()}, 1, nil
	}

	value, err := args.Resolve(task.MappedArg)
	if err != nil {
		return nil, 0, configErrorf(task.Name, "%v", err)
	}

	parts, err := Partition(value, task.NumWorkers, task.Partition, task.Divider)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.Task = task.Name
		}
		return nil, 0, err
	}

	bundles, err := BuildBundles(args, task.MappedArg, parts)
	if err != nil {
		return nil, 0, err
	}
	return bundles, EffectiveWorkers(task.NumWorkers, len(bundles)), nil
}
