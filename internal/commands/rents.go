package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/beesaferoot/rentstore/lifecycle"
	"github.com/beesaferoot/rentstore/repository"
)

func OverdueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "List unpaid rents past their due date",
		RunE: func(cmd *cobra.Command, args []string) error {
			write, _ := cmd.Flags().GetBool("write")

			st, _, err := openStore(cmd, false)
			if err != nil {
				return err
			}
			defer st.Close()

			rents := repository.NewRentRepository(st)
			unpaid, err := rents.Unpaid(cmd.Context())
			if err != nil {
				return err
			}

			ref := now()
			ids := lifecycle.ComputeOverdueIDs(unpaid, ref)
			overdue := make(map[uint]bool, len(ids))
			for _, id := range ids {
				overdue[id] = true
			}

			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No overdue rents.")
				return nil
			}

			fmt.Fprintf(out, "%-6s  %-6s  %-10s  %-10s  %-8s\n", "Rent", "Lease", "Due", "Total", "Status")
			for _, rent := range unpaid {
				if !overdue[rent.ID] {
					continue
				}
				fmt.Fprintf(out, "%-6d  %-6d  %-10s  %-10.2f  %-8s\n", rent.ID, rent.LeaseID, formatDate(rent.DueDate), rent.Total(), rent.Status)
			}

			if write {
				n, err := rents.MarkLate(cmd.Context(), ids)
				if err != nil {
					return fmt.Errorf("failed to mark rents late: %w", err)
				}
				fmt.Fprintf(out, "Marked %d rents late.\n", n)
			}
			return nil
		},
	}

	cmd.Flags().Bool("write", false, "Store the late status on pending overdue rents")

	return cmd
}

func UpcomingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List the rents of the next billing cycle not stored yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			materialize, _ := cmd.Flags().GetBool("materialize")

			st, _, err := openStore(cmd, false)
			if err != nil {
				return err
			}
			defer st.Close()

			leases, err := repository.NewLeaseRepository(st).Active(cmd.Context())
			if err != nil {
				return err
			}
			rentRepo := repository.NewRentRepository(st)
			rents, err := rentRepo.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			virtual := lifecycle.GenerateVirtualRents(leases, rents, now())
			if len(virtual) == 0 {
				fmt.Fprintln(out, "No upcoming rents.")
				return nil
			}

			fmt.Fprintf(out, "%-22s  %-6s  %-10s  %-10s\n", "ID", "Lease", "Due", "Total")
			for _, v := range virtual {
				fmt.Fprintf(out, "%-22s  %-6d  %-10s  %-10.2f\n", v.ID, v.LeaseID, formatDate(v.DueDate), v.Total())
			}

			if !materialize {
				return nil
			}
			for _, v := range virtual {
				rent, err := lifecycle.Materialize(cmd.Context(), rentRepo, v)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Stored %s as rent %d\n", v.ID, rent.ID)
			}
			return nil
		},
	}

	cmd.Flags().Bool("materialize", false, "Store the upcoming rents as pending rents")

	return cmd
}

func CalendarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar",
		Short: "Show stored and upcoming rents by date",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := openStore(cmd, false)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			rents, err := repository.NewRentRepository(st).List(ctx)
			if err != nil {
				return err
			}
			leases, err := repository.NewLeaseRepository(st).List(ctx)
			if err != nil {
				return err
			}
			properties, err := repository.NewPropertyRepository(st).List(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			events := lifecycle.BuildCalendar(rents, leases, properties, now())
			if len(events) == 0 {
				fmt.Fprintln(out, "Nothing scheduled.")
				return nil
			}

			fmt.Fprintf(out, "%-10s  %-30s  %-8s  %-10s  %-22s\n", "Date", "Title", "Status", "Total", "Ref")
			for _, e := range events {
				ref := e.VirtualID
				if e.RentID != nil {
					ref = "rent " + strconv.FormatUint(uint64(*e.RentID), 10)
				}
				fmt.Fprintf(out, "%-10s  %-30s  %-8s  %-10.2f  %-22s\n", formatDate(e.Date), e.Title, e.Status, e.Amount+e.Charges, ref)
			}
			return nil
		},
	}
}

func ChargesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "charges <lease-id> <year>",
		Short: "Compute and store the yearly charges figures of a lease",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			leaseID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid lease id %q: %w", args[0], err)
			}
			year, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid year %q: %w", args[1], err)
			}

			st, _, err := openStore(cmd, false)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			lease, err := repository.NewLeaseRepository(st).ByID(ctx, uint(leaseID))
			if err != nil {
				return err
			}
			rents, err := repository.NewRentRepository(st).ByLeaseID(ctx, lease.ID)
			if err != nil {
				return err
			}

			row, err := repository.NewChargesAdjustmentRepository(st).Upsert(ctx, lease.ID, year, lifecycle.SummarizeYear(*lease, rents, year))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Lease %d, %d\n", row.LeaseID, row.Year)
			fmt.Fprintf(out, "  rents paid:      %d (%.2f)\n", row.RentsPaidCount, row.RentsPaidTotal)
			fmt.Fprintf(out, "  provision due:   %.2f\n", row.AnnualCharges)
			fmt.Fprintf(out, "  provision paid:  %.2f\n", row.ChargesProvisionPaid)
			fmt.Fprintf(out, "  actual charges:  %.2f\n", lifecycle.ActualCharges(*row))
			fmt.Fprintf(out, "  balance:         %.2f\n", lifecycle.Balance(*row))
			return nil
		},
	}
}
