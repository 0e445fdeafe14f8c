package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driving"
)

var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Stage places for upload",
	Long: `Add, edit, list and remove places staged for upload to the logged in
instance. Each place is staged with its primary contact; uploading creates
both and a user account for the contact.`,
}

var placeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Stage a new place",
	Long: `Stage a new place of a configured contact type.

Examples:
  usermgr place add --type c_community_health_unit \
    --prop name="Kisumu CHU" --prop code=1234 \
    --contact name="Jane Doe" --contact phone=+254700000000 \
    --parent sub_county="Kisumu Central" --parent county=Kisumu

  # replace the primary contact of an existing place
  usermgr place add --type c_community_health_unit \
    --replace "Kisumu CHU" --contact name="John Doe" \
    --parent sub_county="Kisumu Central"`,
	RunE: runPlaceAdd,
}

var placeEditCmd = &cobra.Command{
	Use:   "edit [place-id]",
	Short: "Edit a staged place that is not yet created",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaceEdit,
}

var placeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List staged places",
	RunE:  runPlaceList,
}

var placeShowCmd = &cobra.Command{
	Use:   "show [place-id]",
	Short: "Show a staged place with its credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaceShow,
}

var placeRemoveCmd = &cobra.Command{
	Use:   "remove [place-id]",
	Short: "Discard a staged place",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaceRemove,
}

var (
	placeType      string
	placeProps     map[string]string
	placeContact   map[string]string
	placeHierarchy map[string]string
	placeReplace   string
)

func init() {
	for _, c := range []*cobra.Command{placeAddCmd, placeEditCmd} {
		c.Flags().StringVarP(&placeType, "type", "t", "", "contact type of the place")
		c.Flags().StringToStringVar(&placeProps, "prop", nil, "place property as name=value")
		c.Flags().StringToStringVar(&placeContact, "contact", nil, "contact property as name=value")
		c.Flags().StringToStringVar(&placeHierarchy, "parent", nil, "ancestor as level=name, e.g. sub_county=Kisumu")
		c.Flags().StringVar(&placeReplace, "replace", "", "name of an existing place whose primary contact is replaced")
	}

	placeCmd.AddCommand(placeAddCmd)
	placeCmd.AddCommand(placeEditCmd)
	placeCmd.AddCommand(placeListCmd)
	placeCmd.AddCommand(placeShowCmd)
	placeCmd.AddCommand(placeRemoveCmd)
	rootCmd.AddCommand(placeCmd)
}

func placeInput() driving.PlaceInput {
	return driving.PlaceInput{
		Type:       placeType,
		Properties: placeProps,
		Contact:    placeContact,
		Hierarchy:  placeHierarchy,
		Replace:    placeReplace,
	}
}

func runPlaceAdd(cmd *cobra.Command, _ []string) error {
	if placeService == nil {
		return errors.New("place service not configured")
	}
	if placeType == "" {
		return errors.New("--type is required")
	}

	client, err := currentClient()
	if err != nil {
		return err
	}

	place, err := placeService.Add(cmd.Context(), client, placeInput())
	if err != nil {
		return fmt.Errorf("failed to add place: %w", err)
	}

	cmd.Printf("Staged %s %q: %s\n", place.Type.Friendly, place.Name(), place.ID)
	printValidationErrors(cmd, place)
	return nil
}

func runPlaceEdit(cmd *cobra.Command, args []string) error {
	if placeService == nil {
		return errors.New("place service not configured")
	}

	client, err := currentClient()
	if err != nil {
		return err
	}

	place, err := placeService.Edit(cmd.Context(), client, args[0], placeInput())
	if err != nil {
		return fmt.Errorf("failed to edit place: %w", err)
	}

	cmd.Printf("Updated %q: %s\n", place.Name(), place.ID)
	printValidationErrors(cmd, place)
	return nil
}

func runPlaceList(cmd *cobra.Command, _ []string) error {
	if placeService == nil || sessionService == nil {
		return errors.New("place service not configured")
	}

	session, err := sessionService.Current()
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	places, err := placeService.List(cmd.Context(), session.AuthInfo.Domain)
	if err != nil {
		return fmt.Errorf("failed to list places: %w", err)
	}

	if len(places) == 0 {
		cmd.Printf("No places staged for %s\n", session.AuthInfo.Domain)
		return nil
	}

	cmd.Printf("Places staged for %s:\n\n", session.AuthInfo.Domain)
	for _, p := range places {
		cmd.Printf("  %s  [%s]\n", p.ID, p.State())
		cmd.Printf("    %s: %s\n", p.Type.Friendly, p.Name())
		cmd.Printf("    Contact: %s\n", p.Contact.Name())
		if r := p.Hierarchy.Replacement; r != nil {
			cmd.Printf("    Replaces contact of: %s\n", r.Name)
		}
		if u := p.CreationDetails().Username; u != "" {
			cmd.Printf("    Username: %s\n", u)
		}
		if msg := p.UploadError(); msg != "" {
			cmd.Printf("    Error: %s\n", msg)
		}
		if p.HasValidationErrors() {
			cmd.Printf("    Invalid: %d problem(s)\n", len(p.ValidationErrors))
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d places\n", len(places))
	return nil
}

func runPlaceShow(cmd *cobra.Command, args []string) error {
	if placeService == nil {
		return errors.New("place service not configured")
	}

	place, err := placeService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get place: %w", err)
	}

	cmd.Printf("ID:       %s\n", place.ID)
	cmd.Printf("Type:     %s\n", place.Type.Friendly)
	cmd.Printf("State:    %s\n", place.State())
	printProperties(cmd, "Place", place.Properties)
	printProperties(cmd, "Contact", place.Contact.Properties)
	if parent := place.Hierarchy.Parent; parent != nil {
		cmd.Printf("Parent:   %s (%s)\n", parent.Name, parent.ID)
	}
	if r := place.Hierarchy.Replacement; r != nil {
		cmd.Printf("Replaces: %s (%s)\n", r.Name, r.ID)
	}

	d := place.CreationDetails()
	if d.PlaceID != "" || d.ContactID != "" || d.Username != "" {
		cmd.Println("Created:")
		cmd.Printf("  Place ID:   %s\n", d.PlaceID)
		cmd.Printf("  Contact ID: %s\n", d.ContactID)
		cmd.Printf("  Username:   %s\n", d.Username)
		cmd.Printf("  Password:   %s\n", d.Password)
	}
	if msg := place.UploadError(); msg != "" {
		cmd.Printf("Error:    %s\n", msg)
	}
	printValidationErrors(cmd, place)
	return nil
}

func runPlaceRemove(cmd *cobra.Command, args []string) error {
	if placeService == nil {
		return errors.New("place service not configured")
	}

	if err := placeService.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove place: %w", err)
	}

	cmd.Printf("Place %s removed.\n", args[0])
	return nil
}

func printProperties(cmd *cobra.Command, label string, props map[string]string) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	cmd.Printf("%s:\n", label)
	for _, k := range keys {
		cmd.Printf("  %s: %s\n", k, props[k])
	}
}

func printValidationErrors(cmd *cobra.Command, place *domain.Place) {
	if !place.HasValidationErrors() {
		return
	}
	keys := make([]string, 0, len(place.ValidationErrors))
	for k := range place.ValidationErrors {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	cmd.Println("Validation errors (the place will not be uploaded until fixed):")
	for _, k := range keys {
		cmd.Printf("  - %s\n", place.ValidationErrors[k])
	}
}
