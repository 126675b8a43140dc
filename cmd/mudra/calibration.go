package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

func newCalibrationCommand(ctx *commandContext) *cobra.Command {
	calibrationCmd := &cobra.Command{
		Use:   "calibration",
		Short: "Show and change pinch calibrations",
	}

	calibrationCmd.AddCommand(newCalibrationListCommand(ctx))
	calibrationCmd.AddCommand(newCalibrationSetCommand(ctx))
	calibrationCmd.AddCommand(newCalibrationResetCommand(ctx))

	return calibrationCmd
}

func newCalibrationListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the effective calibration of every channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				stored := make(map[gesture.Channel]*store.Calibration)
				profiles, err := st.Calibrations().List()
				if err != nil {
					return err
				}
				for _, p := range profiles {
					stored[p.Channel] = p
				}

				defaults := cfg.Calibrations()
				rows := make([][]string, 0, len(gesture.Channels))
				for _, ch := range gesture.Channels {
					cal, source, updated := defaults[ch], "config", "-"
					if p, ok := stored[ch]; ok {
						cal, source = p.Range(), "stored"
						updated = p.UpdatedAt.Local().Format("2006-01-02 15:04:05")
					}
					rows = append(rows, []string{
						string(ch),
						formatDistance(cal.MinDistance),
						formatDistance(cal.MaxDistance),
						source,
						updated,
					})
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Channel", "Min", "Max", "Source", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newCalibrationSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <volume|brightness> <min> <max>",
		Short: "Store a calibration; applied on the next start",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := gesture.ParseChannel(args[0])
			if err != nil {
				return err
			}
			minDist, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("parse min distance: %w", err)
			}
			maxDist, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("parse max distance: %w", err)
			}

			return ctx.withStore(func(st *store.Store) error {
				profile := &store.Calibration{Channel: ch, MinDistance: minDist, MaxDistance: maxDist}
				if err := st.Calibrations().Upsert(profile); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s calibration set to %s-%s\n",
					ch, formatDistance(minDist), formatDistance(maxDist))
				return nil
			})
		},
	}
}

func newCalibrationResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <volume|brightness>",
		Short: "Remove a stored calibration so the configured range applies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := gesture.ParseChannel(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.Store) error {
				err := st.Calibrations().Delete(ch)
				if errors.Is(err, store.ErrNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s has no stored calibration\n", ch)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s calibration reset\n", ch)
				return nil
			})
		},
	}
}

func formatDistance(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
